// Пакет memstore — потокобезопасное in-memory хранилище сущностей каталога.
//
// Сущности хранятся в арене по id, связи родитель → ответы и
// игра → комментарии ведутся отдельными индексами, без ссылок
// между объектами. Реализует те же интерфейсы и ошибки, что и
// PostgreSQL-репозитории (repository.Repositories, repository.Transactor).
//
// Не персистентное: данные теряются при рестарте.
package memstore

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/opengamelist/internal/domain/model"
	"github.com/bigkaa/opengamelist/internal/repository"
)

// state — содержимое хранилища. Копируется целиком при начале транзакции.
type state struct {
	users     map[string]*model.User
	usernames map[string]string // lower(username) → user id
	emails    map[string]string // lower(email) → user id

	items    map[int64]*model.Item
	comments map[int64]*model.Comment

	// children — id ответов по возрастанию, ключ — id родителя
	children map[int64][]int64
	// itemComments — id комментариев игры по возрастанию
	itemComments map[int64][]int64

	nextItemID    int64
	nextCommentID int64
}

func newState() *state {
	return &state{
		users:         make(map[string]*model.User),
		usernames:     make(map[string]string),
		emails:        make(map[string]string),
		items:         make(map[int64]*model.Item),
		comments:      make(map[int64]*model.Comment),
		children:      make(map[int64][]int64),
		itemComments:  make(map[int64][]int64),
		nextItemID:    1,
		nextCommentID: 1,
	}
}

// clone делает копию индексов. Сами сущности не копируются:
// хранилище никогда не изменяет сохранённый объект, а заменяет его.
func (st *state) clone() *state {
	c := &state{
		users:         make(map[string]*model.User, len(st.users)),
		usernames:     make(map[string]string, len(st.usernames)),
		emails:        make(map[string]string, len(st.emails)),
		items:         make(map[int64]*model.Item, len(st.items)),
		comments:      make(map[int64]*model.Comment, len(st.comments)),
		children:      make(map[int64][]int64, len(st.children)),
		itemComments:  make(map[int64][]int64, len(st.itemComments)),
		nextItemID:    st.nextItemID,
		nextCommentID: st.nextCommentID,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.usernames {
		c.usernames[k] = v
	}
	for k, v := range st.emails {
		c.emails[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.comments {
		c.comments[k] = v
	}
	for k, v := range st.children {
		c.children[k] = slices.Clone(v)
	}
	for k, v := range st.itemComments {
		c.itemComments[k] = slices.Clone(v)
	}
	return c
}

// Store — in-memory хранилище сущностей.
// Использует sync.RWMutex для конкурентного чтения и
// эксклюзивной записи. Транзакция держит эксклюзивную блокировку
// до своего завершения.
type Store struct {
	repository.Repositories

	mu     sync.RWMutex
	st     *state
	now    func() time.Time
	logger *slog.Logger
}

// New создаёт пустое хранилище.
func New(logger *slog.Logger) *Store {
	s := &Store{
		st:     newState(),
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With(slog.String("component", "memstore")),
	}
	s.Repositories = s.repositories(false)
	return s
}

// RunInTx выполняет fn под эксклюзивной блокировкой.
// Если fn вернула ошибку, состояние восстанавливается из снимка.
func (s *Store) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(s.repositories(true)); err != nil {
		s.st = snapshot
		s.logger.Debug("Транзакция откатена", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// CheckReady всегда сообщает о готовности: внешних зависимостей нет.
func (s *Store) CheckReady() (status string, message string) {
	return "ok", "in-memory хранилище"
}

// Stats возвращает число сущностей каждого вида.
func (s *Store) Stats() (users, items, comments int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.users), len(s.st.items), len(s.st.comments)
}

func (s *Store) repositories(inTx bool) repository.Repositories {
	a := accessor{s: s, inTx: inTx}
	return repository.Repositories{
		Users:    &userRepo{a},
		Items:    &itemRepo{a},
		Comments: &commentRepo{a},
	}
}

// accessor захватывает блокировку для одиночной операции.
// Внутри транзакции блокировка уже удерживается RunInTx.
type accessor struct {
	s    *Store
	inTx bool
}

func (a accessor) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !a.inTx {
		a.s.mu.RLock()
		defer a.s.mu.RUnlock()
	}
	return fn(a.s.st)
}

// write выполняет fn под эксклюзивной блокировкой. fn обязана
// проверить все условия до первого изменения state.
func (a accessor) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !a.inTx {
		a.s.mu.Lock()
		defer a.s.mu.Unlock()
	}
	return fn(a.s.st)
}

func (a accessor) now() time.Time {
	return a.s.now()
}

func lowerKey(s string) string {
	return strings.ToLower(s)
}

// removeID удаляет id из отсортированного списка.
func removeID(ids []int64, id int64) []int64 {
	if i, ok := slices.BinarySearch(ids, id); ok {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}
