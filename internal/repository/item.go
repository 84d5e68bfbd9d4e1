package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/opengamelist/internal/domain/model"
)

// ItemRepository — интерфейс CRUD и ранжирующих выборок для таблицы items.
type ItemRepository interface {
	// Create создаёт игру, заполняет ID, ViewCount и метки времени.
	// Несуществующий владелец — ErrReference.
	Create(ctx context.Context, it *model.Item) error
	// GetByID возвращает игру по id.
	GetByID(ctx context.Context, id int64) (*model.Item, error)
	// GetForUpdate возвращает игру и блокирует запись до конца транзакции.
	GetForUpdate(ctx context.Context, id int64) (*model.Item, error)
	// GetForShare возвращает игру и запрещает её удаление до конца транзакции.
	// Изменение полей и счётчика просмотров не блокируется.
	GetForShare(ctx context.Context, id int64) (*model.Item, error)
	// Update обновляет редактируемые поля и last_modified_at.
	// Владелец и счётчик просмотров не меняются.
	Update(ctx context.Context, it *model.Item) error
	// Delete удаляет игру вместе со всеми её комментариями.
	Delete(ctx context.Context, id int64) error
	// IncrementViewCount атомарно увеличивает счётчик просмотров
	// и возвращает игру с новым значением.
	IncrementViewCount(ctx context.Context, id int64) (*model.Item, error)
	// Latest возвращает n последних игр (created_at DESC, id DESC).
	Latest(ctx context.Context, n int) ([]*model.Item, error)
	// MostViewed возвращает n самых просматриваемых игр (view_count DESC, id DESC).
	MostViewed(ctx context.Context, n int) ([]*model.Item, error)
	// Random возвращает случайную выборку из n игр без повторений.
	Random(ctx context.Context, n int) ([]*model.Item, error)
}

const itemColumns = `id, title, description, text, notes, type, flags,
	user_id, view_count, created_at, last_modified_at`

// itemRepo — реализация ItemRepository.
type itemRepo struct {
	db DBTX
}

// NewItemRepository создаёт репозиторий игр.
func NewItemRepository(db DBTX) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) Create(ctx context.Context, it *model.Item) error {
	query := `
		INSERT INTO items (title, description, text, notes, type, flags, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, view_count, created_at, last_modified_at`

	err := r.db.QueryRow(ctx, query,
		it.Title, it.Description, it.Text, it.Notes, it.Type, it.Flags, it.UserID,
	).Scan(&it.ID, &it.ViewCount, &it.CreatedAt, &it.LastModifiedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: владелец %s не существует", ErrReference, it.UserID)
		}
		return fmt.Errorf("ошибка создания игры: %w", err)
	}
	return nil
}

func (r *itemRepo) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

func (r *itemRepo) GetForUpdate(ctx context.Context, id int64) (*model.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
}

func (r *itemRepo) GetForShare(ctx context.Context, id int64) (*model.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR KEY SHARE`, id)
}

func (r *itemRepo) IncrementViewCount(ctx context.Context, id int64) (*model.Item, error) {
	query := `
		UPDATE items SET view_count = view_count + 1
		WHERE id = $1
		RETURNING ` + itemColumns
	return r.getOne(ctx, query, id)
}

func (r *itemRepo) getOne(ctx context.Context, query string, id int64) (*model.Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения игры: %w", err)
	}
	return it, nil
}

func (r *itemRepo) Update(ctx context.Context, it *model.Item) error {
	query := `
		UPDATE items
		SET title = $2, description = $3, text = $4, notes = $5,
			type = $6, flags = $7, last_modified_at = now()
		WHERE id = $1
		RETURNING user_id, view_count, created_at, last_modified_at`

	err := r.db.QueryRow(ctx, query,
		it.ID, it.Title, it.Description, it.Text, it.Notes, it.Type, it.Flags,
	).Scan(&it.UserID, &it.ViewCount, &it.CreatedAt, &it.LastModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления игры: %w", err)
	}
	return nil
}

func (r *itemRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления игры: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *itemRepo) Latest(ctx context.Context, n int) ([]*model.Item, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM items
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, n)
}

func (r *itemRepo) MostViewed(ctx context.Context, n int) ([]*model.Item, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM items
		ORDER BY view_count DESC, id DESC
		LIMIT $1`, n)
}

func (r *itemRepo) Random(ctx context.Context, n int) ([]*model.Item, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM items
		ORDER BY random()
		LIMIT $1`, n)
}

func (r *itemRepo) list(ctx context.Context, query string, n int) ([]*model.Item, error) {
	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка игр: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Item, 0, n)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования игры: %w", err)
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

func scanItem(row rowScanner) (*model.Item, error) {
	it := &model.Item{}
	err := row.Scan(
		&it.ID, &it.Title, &it.Description, &it.Text, &it.Notes, &it.Type, &it.Flags,
		&it.UserID, &it.ViewCount, &it.CreatedAt, &it.LastModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return it, nil
}
