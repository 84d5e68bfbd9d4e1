package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bigkaa/opengamelist/internal/domain/access"
	"github.com/bigkaa/opengamelist/internal/domain/model"
)

func TestItemService_CreateOwnerFromPrincipal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "owner")

	it, err := f.items.Create(ctx, access.Principal{UserID: u.ID}, ItemInput{Title: "Foo", Type: 1, Flags: 4})
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if it.UserID != u.ID {
		t.Errorf("UserID = %s, ожидается %s", it.UserID, u.ID)
	}
	if it.ViewCount != 0 || it.Type != 1 || it.Flags != 4 {
		t.Errorf("неожиданные поля: %+v", it)
	}
}

func TestItemService_CreateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "owner")

	tests := []struct {
		name string
		p    access.Principal
		in   ItemInput
		want error
	}{
		{"без аутентификации", access.Principal{}, ItemInput{Title: "Foo"}, ErrUnauthenticated},
		{"пустой title", access.Principal{UserID: u.ID}, ItemInput{Title: "  "}, ErrInvalidPayload},
		{"пользователь удалён", access.Principal{UserID: "ghost"}, ItemInput{Title: "Foo"}, ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.items.Create(ctx, tt.p, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() = %v, ожидается %v", err, tt.want)
			}
		})
	}
}

func TestItemService_GetIncrementsViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "owner")
	it, _ := f.items.Create(ctx, access.Principal{UserID: u.ID}, ItemInput{Title: "Foo"})

	for want := 1; want <= 3; want++ {
		got, err := f.items.Get(ctx, it.ID)
		if err != nil {
			t.Fatalf("Get() ошибка: %v", err)
		}
		if got.ViewCount != want {
			t.Errorf("ViewCount = %d, ожидается %d", got.ViewCount, want)
		}
		if !got.LastModifiedAt.Equal(it.LastModifiedAt) {
			t.Error("просмотр изменил LastModifiedAt")
		}
	}

	if _, err := f.items.Get(ctx, 9999); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Get(несуществующей) = %v, ожидается ErrItemNotFound", err)
	}
}

func TestItemService_UpdateAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	other := f.register(t, "other")
	admin := f.register(t, "admin")
	f.makeAdmin(t, admin)

	it, _ := f.items.Create(ctx, access.Principal{UserID: owner.ID}, ItemInput{Title: "Foo"})

	_, err := f.items.Update(ctx, access.Principal{UserID: other.ID}, it.ID, ItemInput{Title: "Взлом"})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Update(чужой) = %v, ожидается ErrForbidden", err)
	}

	updated, err := f.items.Update(ctx, access.Principal{UserID: owner.ID}, it.ID, ItemInput{Title: "Bar"})
	if err != nil {
		t.Fatalf("Update(владелец) ошибка: %v", err)
	}
	if updated.Title != "Bar" || updated.UserID != owner.ID {
		t.Errorf("Update() = %+v", updated)
	}
	if updated.LastModifiedAt.Before(it.LastModifiedAt) {
		t.Error("LastModifiedAt уменьшился")
	}

	adminP := access.Principal{UserID: admin.ID, UserType: access.UserTypeAdmin}
	if _, err := f.items.Update(ctx, adminP, it.ID, ItemInput{Title: "Модерация"}); err != nil {
		t.Errorf("Update(админ) ошибка: %v", err)
	}

	if _, err := f.items.Update(ctx, adminP, 9999, ItemInput{Title: "x"}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Update(несуществующей) = %v, ожидается ErrItemNotFound", err)
	}
	if _, err := f.items.Update(ctx, adminP, it.ID, ItemInput{}); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Update(пустой title) = %v, ожидается ErrInvalidPayload", err)
	}
}

func TestItemService_DeleteCascadesComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	reader := f.register(t, "reader")
	ownerP := access.Principal{UserID: owner.ID}
	readerP := access.Principal{UserID: reader.ID}

	it, _ := f.items.Create(ctx, ownerP, ItemInput{Title: "Foo"})
	root, err := f.comments.Add(ctx, readerP, CommentInput{ItemID: it.ID, Text: "первый"})
	if err != nil {
		t.Fatalf("Add() ошибка: %v", err)
	}
	reply, err := f.comments.Add(ctx, ownerP, CommentInput{ItemID: it.ID, Text: "ответ", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("Add(ответ) ошибка: %v", err)
	}

	if err := f.items.Delete(ctx, readerP, it.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Delete(чужой) = %v, ожидается ErrForbidden", err)
	}
	if err := f.items.Delete(ctx, ownerP, it.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}

	for _, c := range []*model.Comment{root, reply} {
		if _, err := f.comments.Get(ctx, c.ID); !errors.Is(err, ErrCommentNotFound) {
			t.Errorf("комментарий %d после удаления игры: %v", c.ID, err)
		}
	}
	if err := f.items.Delete(ctx, ownerP, it.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("повторный Delete() = %v, ожидается ErrItemNotFound", err)
	}

	// Комментарии читателя удалены вместе с игрой, теперь его можно удалить
	if err := f.users.Delete(ctx, readerP, reader.ID); err != nil {
		t.Errorf("Delete(читатель) ошибка: %v", err)
	}
}

func TestMutations_RequirePrincipal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner")
	ownerP := access.Principal{UserID: owner.ID}

	it, err := f.items.Create(ctx, ownerP, ItemInput{Title: "Foo"})
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	c, err := f.comments.Add(ctx, ownerP, CommentInput{ItemID: it.ID, Text: "мой"})
	if err != nil {
		t.Fatalf("Add() ошибка: %v", err)
	}

	// Пустой субъект даже с типом администратора не аутентифицирован
	anon := access.Principal{UserType: access.UserTypeAdmin}
	tests := []struct {
		name string
		call func() error
	}{
		{"Items.Update", func() error {
			_, err := f.items.Update(ctx, anon, it.ID, ItemInput{Title: "Bar"})
			return err
		}},
		{"Items.Delete", func() error { return f.items.Delete(ctx, anon, it.ID) }},
		{"Comments.Delete", func() error { return f.comments.Delete(ctx, anon, c.ID) }},
		{"Users.Delete", func() error { return f.users.Delete(ctx, anon, owner.ID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("%s() = %v, ожидается ErrUnauthenticated", tt.name, err)
			}
		})
	}

	got, err := f.items.Get(ctx, it.ID)
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if got.Title != "Foo" {
		t.Errorf("Title = %q, игра изменена без аутентификации", got.Title)
	}
}
