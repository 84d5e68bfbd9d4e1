// dto.go — JSON-представления сущностей и явные преобразования из модели.
// Серверные поля (id, владелец, счётчики, метки времени) во входных
// структурах отсутствуют: клиент не может их задать.
package handlers

import (
	"time"

	"github.com/bigkaa/opengamelist/internal/domain/model"
	"github.com/bigkaa/opengamelist/internal/service"
)

// --- Запросы ---

type itemRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Text        *string `json:"text"`
	Notes       *string `json:"notes"`
	Type        int     `json:"type"`
	Flags       int     `json:"flags"`
}

func (req itemRequest) toInput() service.ItemInput {
	return service.ItemInput{
		Title:       req.Title,
		Description: req.Description,
		Text:        req.Text,
		Notes:       req.Notes,
		Type:        req.Type,
		Flags:       req.Flags,
	}
}

type commentRequest struct {
	ItemID   int64  `json:"item_id"`
	Text     string `json:"text"`
	Type     int    `json:"type"`
	Flags    int    `json:"flags"`
	ParentID *int64 `json:"parent_id"`
}

func (req commentRequest) toInput() service.CommentInput {
	return service.CommentInput{
		ItemID:   req.ItemID,
		Text:     req.Text,
		Type:     req.Type,
		Flags:    req.Flags,
		ParentID: req.ParentID,
	}
}

type registerRequest struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name"`
	Notes       *string `json:"notes"`
}

func (req registerRequest) toInput() service.RegisterInput {
	return service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Notes:       req.Notes,
	}
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// --- Ответы ---

type itemResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description"`
	Text           *string   `json:"text"`
	Notes          *string   `json:"notes"`
	Type           int       `json:"type"`
	Flags          int       `json:"flags"`
	UserID         string    `json:"user_id"`
	ViewCount      int       `json:"view_count"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

func mapItem(it *model.Item) itemResponse {
	return itemResponse{
		ID:             it.ID,
		Title:          it.Title,
		Description:    it.Description,
		Text:           it.Text,
		Notes:          it.Notes,
		Type:           it.Type,
		Flags:          it.Flags,
		UserID:         it.UserID,
		ViewCount:      it.ViewCount,
		CreatedAt:      it.CreatedAt.UTC(),
		LastModifiedAt: it.LastModifiedAt.UTC(),
	}
}

// mapItems всегда возвращает непустой срез, чтобы в JSON был [] вместо null.
func mapItems(items []*model.Item) []itemResponse {
	out := make([]itemResponse, len(items))
	for i, it := range items {
		out[i] = mapItem(it)
	}
	return out
}

type commentResponse struct {
	ID             int64     `json:"id"`
	ItemID         int64     `json:"item_id"`
	Text           string    `json:"text"`
	Type           int       `json:"type"`
	Flags          int       `json:"flags"`
	UserID         string    `json:"user_id"`
	ParentID       *int64    `json:"parent_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

func mapComment(c *model.Comment) commentResponse {
	return commentResponse{
		ID:             c.ID,
		ItemID:         c.ItemID,
		Text:           c.Text,
		Type:           c.Type,
		Flags:          c.Flags,
		UserID:         c.UserID,
		ParentID:       c.ParentID,
		CreatedAt:      c.CreatedAt.UTC(),
		LastModifiedAt: c.LastModifiedAt.UTC(),
	}
}

func mapComments(comments []*model.Comment) []commentResponse {
	out := make([]commentResponse, len(comments))
	for i, c := range comments {
		out[i] = mapComment(c)
	}
	return out
}

// userResponse не содержит хэш пароля.
type userResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	DisplayName    *string   `json:"display_name"`
	Notes          *string   `json:"notes"`
	Type           int       `json:"type"`
	Flags          int       `json:"flags"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

func mapUser(u *model.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Notes:          u.Notes,
		Type:           u.Type,
		Flags:          u.Flags,
		CreatedAt:      u.CreatedAt.UTC(),
		LastModifiedAt: u.LastModifiedAt.UTC(),
	}
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}
