package memstore

import (
	"context"
	"fmt"

	"github.com/bigkaa/opengamelist/internal/domain/model"
	"github.com/bigkaa/opengamelist/internal/repository"
)

// userRepo — реализация repository.UserRepository.
type userRepo struct {
	accessor
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.users[u.ID]; ok {
			return fmt.Errorf("%w: пользователь %s уже существует", repository.ErrConflict, u.ID)
		}
		if err := checkUnique(st, u); err != nil {
			return err
		}

		now := r.now()
		u.CreatedAt, u.LastModifiedAt = now, now
		stored := *u
		st.users[u.ID] = &stored
		st.usernames[lowerKey(u.Username)] = u.ID
		st.emails[lowerKey(u.Email)] = u.ID
		return nil
	})
}

// checkUnique проверяет уникальность username и email без учёта регистра.
func checkUnique(st *state, u *model.User) error {
	if id, ok := st.usernames[lowerKey(u.Username)]; ok && id != u.ID {
		return fmt.Errorf("%w: username или email уже зарегистрирован", repository.ErrConflict)
	}
	if id, ok := st.emails[lowerKey(u.Email)]; ok && id != u.ID {
		return fmt.Errorf("%w: username или email уже зарегистрирован", repository.ErrConflict)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var out *model.User
	err := r.read(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var out *model.User
	err := r.read(ctx, func(st *state) error {
		id, ok := st.usernames[lowerKey(username)]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *st.users[id]
		out = &cp
		return nil
	})
	return out, err
}

// GetForUpdate совпадает с GetByID: внутри транзакции хранилище
// уже заблокировано целиком.
func (r *userRepo) GetForUpdate(ctx context.Context, id string) (*model.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	return r.write(ctx, func(st *state) error {
		old, ok := st.users[u.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if err := checkUnique(st, u); err != nil {
			return err
		}

		delete(st.usernames, lowerKey(old.Username))
		delete(st.emails, lowerKey(old.Email))

		u.CreatedAt = old.CreatedAt
		u.LastModifiedAt = r.now()
		stored := *u
		st.users[u.ID] = &stored
		st.usernames[lowerKey(u.Username)] = u.ID
		st.emails[lowerKey(u.Email)] = u.ID
		return nil
	})
}

// Delete удаляет пользователя и каскадно его игры с их комментариями.
// Пока у пользователя есть комментарии — ErrConflict.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	return r.write(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		for _, c := range st.comments {
			if c.UserID == id {
				return fmt.Errorf("%w: у пользователя есть комментарии", repository.ErrConflict)
			}
		}

		for itemID, it := range st.items {
			if it.UserID == id {
				deleteItem(st, itemID)
			}
		}
		delete(st.usernames, lowerKey(u.Username))
		delete(st.emails, lowerKey(u.Email))
		delete(st.users, id)
		return nil
	})
}
