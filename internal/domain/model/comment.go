package model

import "time"

// Comment — комментарий к игре, опционально ответ на другой комментарий.
// Хранится в таблице comments. Родитель всегда относится к той же игре.
type Comment struct {
	// ID — серверный монотонный идентификатор
	ID int64
	// ItemID — игра, к которой относится комментарий
	ItemID int64
	// Text — текст (обязательно)
	Text string
	// Type — тип комментария
	Type int
	// Flags — битовая маска флагов
	Flags int
	// UserID — автор
	UserID string
	// ParentID — родительский комментарий (nil для корня ветки)
	ParentID *int64
	// CreatedAt — время создания
	CreatedAt time.Time
	// LastModifiedAt — время последнего изменения
	LastModifiedAt time.Time
}
