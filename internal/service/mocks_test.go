package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/opengamelist/internal/auth"
	"github.com/bigkaa/opengamelist/internal/domain/access"
	"github.com/bigkaa/opengamelist/internal/domain/model"
	"github.com/bigkaa/opengamelist/internal/memstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockItemRepo — мок repository.ItemRepository для ранжирования
// и ошибок хранилища. Незаданные функции не должны вызываться.
type mockItemRepo struct {
	latestFn     func(ctx context.Context, n int) ([]*model.Item, error)
	mostViewedFn func(ctx context.Context, n int) ([]*model.Item, error)
	randomFn     func(ctx context.Context, n int) ([]*model.Item, error)
	incrementFn  func(ctx context.Context, id int64) (*model.Item, error)
}

func (m *mockItemRepo) Create(context.Context, *model.Item) error { panic("не ожидается") }
func (m *mockItemRepo) GetByID(context.Context, int64) (*model.Item, error) {
	panic("не ожидается")
}
func (m *mockItemRepo) GetForUpdate(context.Context, int64) (*model.Item, error) {
	panic("не ожидается")
}
func (m *mockItemRepo) GetForShare(context.Context, int64) (*model.Item, error) {
	panic("не ожидается")
}
func (m *mockItemRepo) Update(context.Context, *model.Item) error { panic("не ожидается") }
func (m *mockItemRepo) Delete(context.Context, int64) error       { panic("не ожидается") }

func (m *mockItemRepo) IncrementViewCount(ctx context.Context, id int64) (*model.Item, error) {
	return m.incrementFn(ctx, id)
}

func (m *mockItemRepo) Latest(ctx context.Context, n int) ([]*model.Item, error) {
	return m.latestFn(ctx, n)
}

func (m *mockItemRepo) MostViewed(ctx context.Context, n int) ([]*model.Item, error) {
	return m.mostViewedFn(ctx, n)
}

func (m *mockItemRepo) Random(ctx context.Context, n int) ([]*model.Item, error) {
	return m.randomFn(ctx, n)
}

// fixture — сервисы поверх одного memstore.
type fixture struct {
	store    *memstore.Store
	tokens   *auth.TokenService
	users    *UserService
	items    *ItemService
	comments *CommentTreeManager
	ranking  *RankingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testLogger()
	store := memstore.New(logger)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		KeyID:  "v1",
		Issuer: "opengamelist",
		TTL:    time.Hour,
	}, logger)
	if err != nil {
		t.Fatalf("NewTokenService() ошибка: %v", err)
	}

	return &fixture{
		store:    store,
		tokens:   tokens,
		users:    NewUserService(store.Repositories, store, tokens, bcrypt.MinCost, logger),
		items:    NewItemService(store.Repositories, store, logger),
		comments: NewCommentTreeManager(store.Repositories, store, logger),
		ranking:  NewRankingService(store.Items, logger),
	}
}

// register создаёт пользователя с паролем "password123".
func (f *fixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register(%s) ошибка: %v", username, err)
	}
	return u
}

// makeAdmin повышает тип пользователя до администратора.
func (f *fixture) makeAdmin(t *testing.T, u *model.User) {
	t.Helper()
	u.Type = access.UserTypeAdmin
	if err := f.store.Users.Update(context.Background(), u); err != nil {
		t.Fatalf("Users.Update() ошибка: %v", err)
	}
}
