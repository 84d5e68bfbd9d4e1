// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — нарушено правило целостности.
	ErrConflict = errors.New("конфликт целостности")
	// ErrForbidden — изменять ресурс может только владелец или администратор.
	ErrForbidden = errors.New("недостаточно прав")
	// ErrUnauthenticated — нет действующей аутентификации.
	ErrUnauthenticated = errors.New("требуется аутентификация")
	// ErrInvalidPayload — некорректные или неполные входные данные.
	ErrInvalidPayload = errors.New("некорректные входные данные")
)

// Уточнённые ошибки. errors.Is работает и с общими, и с уточнёнными.
var (
	ErrItemNotFound    = fmt.Errorf("%w: игра", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("%w: комментарий", ErrNotFound)
	ErrParentNotFound  = fmt.Errorf("%w: родительский комментарий", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("%w: пользователь", ErrNotFound)

	ErrParentItemMismatch = fmt.Errorf("%w: родительский комментарий относится к другой игре", ErrConflict)
	ErrHasChildren        = fmt.Errorf("%w: у комментария есть ответы", ErrConflict)
	ErrUserHasComments    = fmt.Errorf("%w: у пользователя есть комментарии", ErrConflict)
	ErrDuplicateUser      = fmt.Errorf("%w: username или email уже зарегистрирован", ErrConflict)
)
