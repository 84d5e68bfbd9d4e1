package model

import "time"

// Item — игра в каталоге.
// Хранится в таблице items, у каждой игры ровно один владелец.
type Item struct {
	// ID — серверный монотонный идентификатор
	ID int64
	// Title — название (обязательно)
	Title string
	// Description — краткое описание
	Description *string
	// Text — произвольный текст
	Text *string
	// Notes — заметки
	Notes *string
	// Type — тип игры
	Type int
	// Flags — битовая маска флагов
	Flags int
	// UserID — владелец
	UserID string
	// ViewCount — счётчик просмотров, не убывает
	ViewCount int
	// CreatedAt — время создания
	CreatedAt time.Time
	// LastModifiedAt — обновляется при каждом изменении
	LastModifiedAt time.Time
}
