// users.go — сервис пользователей: регистрация, вход, удаление.
// Пароли хранятся как bcrypt-хэш.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigkaa/opengamelist/internal/auth"
	"github.com/bigkaa/opengamelist/internal/domain/access"
	"github.com/bigkaa/opengamelist/internal/domain/model"
	"github.com/bigkaa/opengamelist/internal/repository"
)

const (
	// MaxUsernameLen — максимальная длина username в символах.
	MaxUsernameLen = 128
	// MinPasswordLen — минимальная длина пароля.
	MinPasswordLen = 8
)

// TokenIssuer выпускает токен для пользователя.
// Реализуется *auth.TokenService.
type TokenIssuer interface {
	Issue(userID string) (auth.Token, error)
}

// RegisterInput — данные регистрации.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName *string
	Notes       *string
}

// normalize проверяет данные регистрации и приводит username и email
// к хранимому виду. Email сохраняется как голый адрес без display name:
// "Eve <eve@example.com>" и "eve@example.com" считаются одним адресом.
func (in RegisterInput) normalize() (RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return in, fmt.Errorf("%w: username обязателен", ErrInvalidPayload)
	}
	if utf8.RuneCountInString(in.Username) > MaxUsernameLen {
		return in, fmt.Errorf("%w: username длиннее %d символов", ErrInvalidPayload, MaxUsernameLen)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return in, fmt.Errorf("%w: некорректный email", ErrInvalidPayload)
	}
	in.Email = addr.Address
	if utf8.RuneCountInString(in.Password) < MinPasswordLen {
		return in, fmt.Errorf("%w: пароль короче %d символов", ErrInvalidPayload, MinPasswordLen)
	}
	return in, nil
}

// UserService — сервис пользователей.
type UserService struct {
	repos      repository.Repositories
	tx         repository.Transactor
	tokens     TokenIssuer
	bcryptCost int
	logger     *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(
	repos repository.Repositories,
	tx repository.Transactor,
	tokens TokenIssuer,
	bcryptCost int,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		repos:      repos,
		tx:         tx,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger.With(slog.String("component", "user_service")),
	}
}

// Register создаёт учётную запись обычного пользователя.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("хэширование пароля: %w", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		DisplayName:  in.DisplayName,
		Notes:        in.Notes,
		Type:         access.UserTypeRegular,
	}

	if err := s.repos.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.String("user_id", u.ID),
		slog.String("username", u.Username),
	)
	return u, nil
}

// Get возвращает пользователя по id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

// Authenticate проверяет имя и пароль.
// Неизвестное имя и неверный пароль неразличимы для вызывающего.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.repos.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: неверное имя пользователя или пароль", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: неверное имя пользователя или пароль", ErrUnauthenticated)
	}
	return u, nil
}

// Login проверяет учётные данные и выпускает токен.
func (s *UserService) Login(ctx context.Context, username, password string) (auth.Token, *model.User, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.Debug("Отказ во входе", slog.String("username", username))
		return auth.Token{}, nil, err
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return auth.Token{}, nil, fmt.Errorf("выпуск токена: %w", err)
	}

	s.logger.Info("Выпущен токен",
		slog.String("user_id", u.ID),
		slog.String("jti", tok.ID),
	)
	return tok, u, nil
}

// Principal возвращает субъекта запроса по id из токена.
// Если пользователь удалён — ErrUnauthenticated.
func (s *UserService) Principal(ctx context.Context, userID string) (access.Principal, error) {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return access.Principal{}, fmt.Errorf("%w: пользователь токена не существует", ErrUnauthenticated)
		}
		return access.Principal{}, fmt.Errorf("получение пользователя: %w", err)
	}
	return access.Principal{UserID: u.ID, UserType: u.Type}, nil
}

// Delete удаляет пользователя вместе с его играми.
// Разрешено самому пользователю или администратору. Пока у пользователя
// есть комментарии — ErrUserHasComments.
func (s *UserService) Delete(ctx context.Context, p access.Principal, id string) error {
	if p.UserID == "" {
		return ErrUnauthenticated
	}
	err := s.tx.RunInTx(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Users.GetForUpdate(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("получение пользователя: %w", err)
		}
		if !access.CanModify(p, id) {
			return fmt.Errorf("%w: чужая учётная запись", ErrForbidden)
		}

		n, err := repos.Comments.CountByAuthor(ctx, id)
		if err != nil {
			return fmt.Errorf("подсчёт комментариев: %w", err)
		}
		if n > 0 {
			return ErrUserHasComments
		}

		if err := repos.Users.Delete(ctx, id); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return ErrUserNotFound
			case errors.Is(err, repository.ErrConflict):
				return ErrUserHasComments
			}
			return fmt.Errorf("удаление пользователя: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Пользователь удалён",
		slog.String("user_id", id),
		slog.String("by", p.UserID),
	)
	return nil
}
