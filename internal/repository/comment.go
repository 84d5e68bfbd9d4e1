package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/opengamelist/internal/domain/model"
)

// CommentRepository — интерфейс CRUD для таблицы comments.
// Правило «родитель из той же игры» проверяет CommentTreeManager.
type CommentRepository interface {
	// Create создаёт комментарий. Несуществующие игра, автор
	// или родитель — ErrReference.
	Create(ctx context.Context, c *model.Comment) error
	// GetByID возвращает комментарий по id.
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	// GetForUpdate возвращает комментарий и блокирует запись до конца транзакции.
	GetForUpdate(ctx context.Context, id int64) (*model.Comment, error)
	// Update обновляет текст, тип и флаги.
	Update(ctx context.Context, c *model.Comment) error
	// Delete удаляет комментарий. Если есть ответы — ErrConflict.
	Delete(ctx context.Context, id int64) error
	// ListChildren возвращает прямые ответы в порядке добавления.
	ListChildren(ctx context.Context, parentID int64) ([]*model.Comment, error)
	// ListByItem возвращает все комментарии игры в порядке добавления.
	ListByItem(ctx context.Context, itemID int64) ([]*model.Comment, error)
	// CountChildren возвращает число прямых ответов.
	CountChildren(ctx context.Context, parentID int64) (int, error)
	// CountByAuthor возвращает число комментариев пользователя.
	CountByAuthor(ctx context.Context, userID string) (int, error)
}

const commentColumns = `id, item_id, text, type, flags, user_id, parent_id,
	created_at, last_modified_at`

// commentRepo — реализация CommentRepository.
type commentRepo struct {
	db DBTX
}

// NewCommentRepository создаёт репозиторий комментариев.
func NewCommentRepository(db DBTX) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, c *model.Comment) error {
	query := `
		INSERT INTO comments (item_id, text, type, flags, user_id, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, last_modified_at`

	err := r.db.QueryRow(ctx, query,
		c.ItemID, c.Text, c.Type, c.Flags, c.UserID, c.ParentID,
	).Scan(&c.ID, &c.CreatedAt, &c.LastModifiedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: игра, автор или родительский комментарий не существует", ErrReference)
		}
		return fmt.Errorf("ошибка создания комментария: %w", err)
	}
	return nil
}

func (r *commentRepo) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	return r.getOne(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
}

func (r *commentRepo) GetForUpdate(ctx context.Context, id int64) (*model.Comment, error) {
	return r.getOne(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1 FOR UPDATE`, id)
}

func (r *commentRepo) getOne(ctx context.Context, query string, id int64) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения комментария: %w", err)
	}
	return c, nil
}

func (r *commentRepo) Update(ctx context.Context, c *model.Comment) error {
	query := `
		UPDATE comments
		SET text = $2, type = $3, flags = $4, last_modified_at = now()
		WHERE id = $1
		RETURNING item_id, user_id, parent_id, created_at, last_modified_at`

	err := r.db.QueryRow(ctx, query, c.ID, c.Text, c.Type, c.Flags).
		Scan(&c.ItemID, &c.UserID, &c.ParentID, &c.CreatedAt, &c.LastModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления комментария: %w", err)
	}
	return nil
}

func (r *commentRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: у комментария есть ответы", ErrConflict)
		}
		return fmt.Errorf("ошибка удаления комментария: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *commentRepo) ListChildren(ctx context.Context, parentID int64) ([]*model.Comment, error) {
	return r.list(ctx, `SELECT `+commentColumns+` FROM comments
		WHERE parent_id = $1
		ORDER BY id`, parentID)
}

func (r *commentRepo) ListByItem(ctx context.Context, itemID int64) ([]*model.Comment, error) {
	return r.list(ctx, `SELECT `+commentColumns+` FROM comments
		WHERE item_id = $1
		ORDER BY id`, itemID)
}

func (r *commentRepo) list(ctx context.Context, query string, arg int64) ([]*model.Comment, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка комментариев: %w", err)
	}
	defer rows.Close()

	result := []*model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования комментария: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *commentRepo) CountChildren(ctx context.Context, parentID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE parent_id = $1`, parentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта ответов: %w", err)
	}
	return count, nil
}

func (r *commentRepo) CountByAuthor(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта комментариев автора: %w", err)
	}
	return count, nil
}

func scanComment(row rowScanner) (*model.Comment, error) {
	c := &model.Comment{}
	err := row.Scan(
		&c.ID, &c.ItemID, &c.Text, &c.Type, &c.Flags, &c.UserID, &c.ParentID,
		&c.CreatedAt, &c.LastModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
