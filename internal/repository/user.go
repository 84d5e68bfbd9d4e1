package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/opengamelist/internal/domain/model"
)

// UserRepository — интерфейс CRUD для таблицы users.
type UserRepository interface {
	// Create создаёт пользователя. Дубликат username/email — ErrConflict.
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя по id.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByUsername возвращает пользователя по имени без учёта регистра.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetForUpdate возвращает пользователя и блокирует запись до конца транзакции.
	GetForUpdate(ctx context.Context, id string) (*model.User, error)
	// Update обновляет профиль пользователя.
	Update(ctx context.Context, u *model.User) error
	// Delete удаляет пользователя вместе с его играми.
	// Если есть комментарии автора — ErrConflict.
	Delete(ctx context.Context, id string) error
}

const userColumns = `id, username, email, password_hash, display_name, notes,
	type, flags, created_at, last_modified_at`

// userRepo — реализация UserRepository.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, display_name, notes, type, flags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, last_modified_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.DisplayName, u.Notes, u.Type, u.Flags,
	).Scan(&u.CreatedAt, &u.LastModifiedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username или email уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`
	return r.getOne(ctx, query, username)
}

func (r *userRepo) GetForUpdate(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, display_name = $5,
			notes = $6, type = $7, flags = $8, last_modified_at = now()
		WHERE id = $1
		RETURNING created_at, last_modified_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.DisplayName, u.Notes, u.Type, u.Flags,
	).Scan(&u.CreatedAt, &u.LastModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username или email уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: у пользователя есть комментарии", ErrConflict)
		}
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Notes,
		&u.Type, &u.Flags, &u.CreatedAt, &u.LastModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}
