// items.go — сервис игр каталога: чтение со счётчиком просмотров,
// создание от имени аутентифицированного пользователя, изменение и
// удаление владельцем или администратором.
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

// ItemInput — редактируемые поля игры.
// Владелец, счётчик просмотров и метки времени задаёт сервер.
type ItemInput struct {
	Title       string
	Description *string
	Text        *string
	Notes       *string
	Type        int
	Flags       int
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title обязателен", ErrInvalidPayload)
	}
	return nil
}

func (in ItemInput) apply(it *model.Item) {
	it.Title = in.Title
	it.Description = in.Description
	it.Text = in.Text
	it.Notes = in.Notes
	it.Type = in.Type
	it.Flags = in.Flags
}

// ItemService — сервис игр.
type ItemService struct {
	repos  repository.Repositories
	tx     repository.Transactor
	logger *slog.Logger
}

// NewItemService создаёт сервис игр.
func NewItemService(repos repository.Repositories, tx repository.Transactor, logger *slog.Logger) *ItemService {
	return &ItemService{
		repos:  repos,
		tx:     tx,
		logger: logger.With(slog.String("component", "item_service")),
	}
}

// Get возвращает игру и увеличивает её счётчик просмотров.
func (s *ItemService) Get(ctx context.Context, id int64) (*model.Item, error) {
	it, err := s.repos.Items.IncrementViewCount(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("получение игры %d: %w", id, err)
	}
	return it, nil
}

// Create создаёт игру. Владелец — аутентифицированный пользователь.
func (s *ItemService) Create(ctx context.Context, p access.Principal, in ItemInput) (*model.Item, error) {
	if p.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	it := &model.Item{UserID: p.UserID}
	in.apply(it)

	if err := s.repos.Items.Create(ctx, it); err != nil {
		// Пользователь из токена удалён
		if errors.Is(err, repository.ErrReference) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("создание игры: %w", err)
	}

	s.logger.Info("Игра создана",
		slog.Int64("item_id", it.ID),
		slog.String("user_id", it.UserID),
	)
	return it, nil
}

// Update изменяет игру. Разрешено владельцу или администратору.
func (s *ItemService) Update(ctx context.Context, p access.Principal, id int64, in ItemInput) (*model.Item, error) {
	if p.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *model.Item
	err := s.tx.RunInTx(ctx, func(repos repository.Repositories) error {
		it, err := s.lockForModify(ctx, repos, p, id)
		if err != nil {
			return err
		}
		in.apply(it)
		if err := repos.Items.Update(ctx, it); err != nil {
			return mapItemErr(err)
		}
		updated = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Игра обновлена",
		slog.Int64("item_id", id),
		slog.String("user_id", p.UserID),
	)
	return updated, nil
}

// Delete удаляет игру вместе со всеми её комментариями.
// Разрешено владельцу или администратору.
func (s *ItemService) Delete(ctx context.Context, p access.Principal, id int64) error {
	if p.UserID == "" {
		return ErrUnauthenticated
	}
	err := s.tx.RunInTx(ctx, func(repos repository.Repositories) error {
		if _, err := s.lockForModify(ctx, repos, p, id); err != nil {
			return err
		}
		return mapItemErr(repos.Items.Delete(ctx, id))
	})
	if err != nil {
		return err
	}

	s.logger.Info("Игра удалена",
		slog.Int64("item_id", id),
		slog.String("user_id", p.UserID),
	)
	return nil
}

// lockForModify блокирует игру и проверяет право на изменение.
func (s *ItemService) lockForModify(ctx context.Context, repos repository.Repositories, p access.Principal, id int64) (*model.Item, error) {
	it, err := repos.Items.GetForUpdate(ctx, id)
	if err != nil {
		return nil, mapItemErr(err)
	}
	if !access.CanModify(p, it.UserID) {
		return nil, fmt.Errorf("%w: игра %d принадлежит другому пользователю", ErrForbidden, id)
	}
	return it, nil
}

func mapItemErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrItemNotFound
	default:
		return fmt.Errorf("операция с игрой: %w", err)
	}
}
