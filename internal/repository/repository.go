// Пакет repository — хранилище сущностей каталога в PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибки слоя репозиториев. Общие для обоих бэкендов (PostgreSQL и memstore).
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — нарушено ограничение целостности
	// (дубликат или удаление записи, на которую есть ссылки).
	ErrConflict = errors.New("конфликт целостности данных")
	// ErrReference — запись ссылается на несуществующую запись.
	ErrReference = errors.New("ссылка на несуществующую запись")
)

// Коды SQLSTATE PostgreSQL.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories — набор репозиториев, привязанных к одному DBTX
// (пулу или транзакции).
type Repositories struct {
	Users    UserRepository
	Items    ItemRepository
	Comments CommentRepository
}

// NewRepositories создаёт набор репозиториев поверх db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Users:    NewUserRepository(db),
		Items:    NewItemRepository(db),
		Comments: NewCommentRepository(db),
	}
}

// Transactor выполняет несколько операций хранилища атомарно.
// Если fn вернула ошибку, ни одно изменение не становится видимым.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(repos Repositories) error) error
}

// TxRunner позволяет выполнять операции в транзакции.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner для управления транзакциями.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn внутри транзакции.
// При ошибке fn — транзакция откатывается.
// При успехе — коммитится.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Store — хранилище сущностей на PostgreSQL.
// Repositories работают вне транзакции (по одному оператору),
// RunInTx — с набором репозиториев, привязанным к pgx.Tx.
type Store struct {
	Repositories
	tx *TxRunner
}

// NewStore создаёт хранилище поверх пула подключений.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Repositories: NewRepositories(pool),
		tx:           NewTxRunner(pool),
	}
}

// RunInTx выполняет fn с репозиториями, работающими в одной транзакции.
func (s *Store) RunInTx(ctx context.Context, fn func(repos Repositories) error) error {
	return s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		return fn(NewRepositories(tx))
	})
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	return hasSQLState(err, pgUniqueViolation)
}

// isForeignKeyViolation проверяет, является ли ошибка нарушением внешнего ключа.
func isForeignKeyViolation(err error) bool {
	return hasSQLState(err, pgForeignKeyViolation)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// rowScanner — общий интерфейс pgx.Row и pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
