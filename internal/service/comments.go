// comments.go — менеджер дерева комментариев.
//
// Правила:
//   - родитель существует и относится к той же игре, иначе Conflict;
//   - комментарий с ответами не удаляется;
//   - удаление игры удаляет все её комментарии (в хранилище).
//
// Проверки и изменения выполняются в одной транзакции
// с блокировкой затронутых записей.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/opengamelist/internal/domain/access"
	"github.com/bigkaa/opengamelist/internal/domain/model"
	"github.com/bigkaa/opengamelist/internal/repository"
)

// CommentInput — данные нового комментария. Автора задаёт сервер.
type CommentInput struct {
	ItemID   int64
	Text     string
	Type     int
	Flags    int
	ParentID *int64
}

// CommentTreeManager — сервис комментариев.
type CommentTreeManager struct {
	repos  repository.Repositories
	tx     repository.Transactor
	logger *slog.Logger
}

// NewCommentTreeManager создаёт менеджер дерева комментариев.
func NewCommentTreeManager(repos repository.Repositories, tx repository.Transactor, logger *slog.Logger) *CommentTreeManager {
	return &CommentTreeManager{
		repos:  repos,
		tx:     tx,
		logger: logger.With(slog.String("component", "comment_tree")),
	}
}

// Add добавляет комментарий от имени p.
func (m *CommentTreeManager) Add(ctx context.Context, p access.Principal, in CommentInput) (*model.Comment, error) {
	if p.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: text обязателен", ErrInvalidPayload)
	}

	c := &model.Comment{
		ItemID:   in.ItemID,
		Text:     in.Text,
		Type:     in.Type,
		Flags:    in.Flags,
		UserID:   p.UserID,
		ParentID: in.ParentID,
	}

	err := m.tx.RunInTx(ctx, func(repos repository.Repositories) error {
		// Игра не должна исчезнуть до вставки; просмотры при этом не ждут
		if _, err := repos.Items.GetForShare(ctx, in.ItemID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("проверка игры: %w", err)
		}

		if in.ParentID != nil {
			parent, err := repos.Comments.GetForUpdate(ctx, *in.ParentID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrParentNotFound
				}
				return fmt.Errorf("проверка родителя: %w", err)
			}
			if parent.ItemID != in.ItemID {
				return ErrParentItemMismatch
			}
		}

		if err := repos.Comments.Create(ctx, c); err != nil {
			// Игра и родитель заблокированы, значит пропал автор
			if errors.Is(err, repository.ErrReference) {
				return ErrUnauthenticated
			}
			return fmt.Errorf("создание комментария: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Комментарий добавлен",
		slog.Int64("comment_id", c.ID),
		slog.Int64("item_id", c.ItemID),
		slog.String("user_id", c.UserID),
	)
	return c, nil
}

// Delete удаляет комментарий. Разрешено автору или администратору;
// комментарий с ответами не удаляется.
func (m *CommentTreeManager) Delete(ctx context.Context, p access.Principal, id int64) error {
	if p.UserID == "" {
		return ErrUnauthenticated
	}
	err := m.tx.RunInTx(ctx, func(repos repository.Repositories) error {
		c, err := repos.Comments.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCommentNotFound
			}
			return fmt.Errorf("получение комментария: %w", err)
		}
		if !access.CanModify(p, c.UserID) {
			return fmt.Errorf("%w: комментарий %d принадлежит другому пользователю", ErrForbidden, id)
		}

		n, err := repos.Comments.CountChildren(ctx, id)
		if err != nil {
			return fmt.Errorf("подсчёт ответов: %w", err)
		}
		if n > 0 {
			return ErrHasChildren
		}

		if err := repos.Comments.Delete(ctx, id); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return ErrCommentNotFound
			case errors.Is(err, repository.ErrConflict):
				return ErrHasChildren
			}
			return fmt.Errorf("удаление комментария: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("Комментарий удалён",
		slog.Int64("comment_id", id),
		slog.String("user_id", p.UserID),
	)
	return nil
}

// Get возвращает комментарий по id.
func (m *CommentTreeManager) Get(ctx context.Context, id int64) (*model.Comment, error) {
	c, err := m.repos.Comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("получение комментария: %w", err)
	}
	return c, nil
}

// ListChildren возвращает прямые ответы на комментарий в порядке добавления.
func (m *CommentTreeManager) ListChildren(ctx context.Context, id int64) ([]*model.Comment, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	children, err := m.repos.Comments.ListChildren(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("список ответов: %w", err)
	}
	return children, nil
}

// ListByItem возвращает все комментарии игры в порядке добавления.
func (m *CommentTreeManager) ListByItem(ctx context.Context, itemID int64) ([]*model.Comment, error) {
	if _, err := m.repos.Items.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("проверка игры: %w", err)
	}
	list, err := m.repos.Comments.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("список комментариев: %w", err)
	}
	return list, nil
}
