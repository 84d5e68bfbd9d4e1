package openapi

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(context.Background())
	if err != nil {
		t.Fatalf("NewValidator() вернул ошибку: %v", err)
	}
	return v
}

func TestDocument_Embedded(t *testing.T) {
	doc := string(Document())
	if !strings.HasPrefix(doc, "openapi: 3.0.3") {
		t.Fatalf("неожиданное начало контракта: %q", doc[:min(len(doc), 40)])
	}
	for _, path := range []string{"/items/{id}", "/items/GetLatest/{n}", "/comments/{id}/children", "/auth/token"} {
		if !strings.Contains(doc, path+":") {
			t.Errorf("в контракте нет пути %s", path)
		}
	}
}

func TestValidateBody_Valid(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		schema string
		body   string
	}{
		{SchemaItemInput, `{"title":"Foo"}`},
		{SchemaItemInput, `{"title":"Foo","description":null,"type":1,"flags":0}`},
		// owner из клиента игнорируется, но не запрещён
		{SchemaItemInput, `{"title":"Foo","user_id":"someone"}`},
		{SchemaCommentInput, `{"item_id":1,"text":"C1"}`},
		{SchemaCommentInput, `{"item_id":1,"text":"C2","parent_id":7}`},
		{SchemaCommentInput, `{"item_id":1,"text":"C2","parent_id":null}`},
		{SchemaRegisterRequest, `{"username":"alice","email":"a@b.c","password":"password123"}`},
		{SchemaTokenRequest, `{"username":"alice","password":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.schema, func(t *testing.T) {
			if err := v.ValidateBody(tt.schema, []byte(tt.body)); err != nil {
				t.Errorf("ValidateBody(%s) вернул ошибку: %v", tt.body, err)
			}
		})
	}
}

func TestValidateBody_Invalid(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name   string
		schema string
		body   string
	}{
		{"не JSON", SchemaItemInput, `{title:`},
		{"массив", SchemaItemInput, `[]`},
		{"нет title", SchemaItemInput, `{"description":"x"}`},
		{"пустой title", SchemaItemInput, `{"title":""}`},
		{"title не строка", SchemaItemInput, `{"title":5}`},
		{"дробный type", SchemaItemInput, `{"title":"Foo","type":1.5}`},
		{"нет item_id", SchemaCommentInput, `{"text":"C1"}`},
		{"item_id строкой", SchemaCommentInput, `{"item_id":"1","text":"C1"}`},
		{"короткий пароль", SchemaRegisterRequest, `{"username":"a","email":"a@b.c","password":"short"}`},
		{"длинный username", SchemaRegisterRequest, `{"username":"` + strings.Repeat("u", 129) + `","email":"a@b.c","password":"password123"}`},
		{"нет пароля", SchemaTokenRequest, `{"username":"alice"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBody(tt.schema, []byte(tt.body))
			if !errors.Is(err, ErrInvalidBody) {
				t.Errorf("ожидалась ErrInvalidBody, получено: %v", err)
			}
		})
	}
}

func TestValidateBody_UnknownSchema(t *testing.T) {
	v := newTestValidator(t)

	err := v.ValidateBody("NoSuchSchema", []byte(`{}`))
	if err == nil {
		t.Fatal("ожидалась ошибка для неизвестной схемы")
	}
	if errors.Is(err, ErrInvalidBody) {
		t.Error("неизвестная схема — ошибка контракта, а не тела запроса")
	}
}
