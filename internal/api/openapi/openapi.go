// Пакет openapi — встроенный OpenAPI-контракт каталога и проверка
// тел запросов по его схемам (kin-openapi).
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Имена схем тел запросов в components.schemas.
const (
	SchemaItemInput       = "ItemInput"
	SchemaCommentInput    = "CommentInput"
	SchemaRegisterRequest = "RegisterRequest"
	SchemaTokenRequest    = "TokenRequest"
)

//go:embed openapi.yaml
var document []byte

// ErrInvalidBody — тело запроса не соответствует схеме.
var ErrInvalidBody = errors.New("тело запроса не соответствует схеме")

// Document возвращает исходный YAML контракта (для GET /openapi.yaml).
func Document() []byte {
	return document
}

// Validator проверяет JSON-тела запросов по схемам контракта.
type Validator struct {
	doc *openapi3.T
}

// NewValidator загружает встроенный контракт и проверяет его корректность.
func NewValidator(ctx context.Context) (*Validator, error) {
	doc, err := openapi3.NewLoader().LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("загрузка OpenAPI контракта: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("невалидный OpenAPI контракт: %w", err)
	}
	return &Validator{doc: doc}, nil
}

// ValidateBody проверяет тело запроса по схеме schemaName.
// Ошибка оборачивает ErrInvalidBody и перечисляет нарушения.
func (v *Validator) ValidateBody(schemaName string, body []byte) error {
	ref, ok := v.doc.Components.Schemas[schemaName]
	if !ok || ref.Value == nil {
		return fmt.Errorf("схема %s отсутствует в контракте", schemaName)
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("%w: некорректный JSON", ErrInvalidBody)
	}

	err := ref.Value.VisitJSON(value, openapi3.MultiErrors(), openapi3.VisitAsRequest())
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidBody, describe(err))
}

// describe собирает краткое описание нарушений схемы.
func describe(err error) string {
	var multi openapi3.MultiError
	if !errors.As(err, &multi) {
		return reason(err)
	}
	parts := make([]string, 0, len(multi))
	for _, e := range multi {
		parts = append(parts, reason(e))
	}
	return strings.Join(parts, "; ")
}

func reason(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if path := schemaErr.JSONPointer(); len(path) > 0 {
			return strings.Join(path, ".") + ": " + schemaErr.Reason
		}
		return schemaErr.Reason
	}
	return err.Error()
}
