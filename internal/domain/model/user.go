// Пакет model — доменные модели каталога игр.
package model

import "time"

// User — учётная запись пользователя каталога.
// Хранится в таблице users. Владеет играми и комментариями.
type User struct {
	// ID — UUID пользователя
	ID string
	// Username — уникальное имя (не длиннее 128 символов, без учёта регистра)
	Username string
	// Email — уникальный адрес электронной почты
	Email string
	// PasswordHash — bcrypt-хэш пароля
	PasswordHash string
	// DisplayName — отображаемое имя (опционально)
	DisplayName *string
	// Notes — заметки (опционально)
	Notes *string
	// Type — тип пользователя (см. access.UserType*)
	Type int
	// Flags — битовая маска флагов
	Flags int
	// CreatedAt — время создания
	CreatedAt time.Time
	// LastModifiedAt — время последнего изменения
	LastModifiedAt time.Time
}
