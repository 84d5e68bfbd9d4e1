// auth.go — Bearer middleware каталога.
// Проверяет токен через auth.TokenService, находит пользователя по sub
// и помещает access.Principal в контекст запроса.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/opengamelist/internal/api/errors"
	"github.com/bigkaa/opengamelist/internal/auth"
	"github.com/bigkaa/opengamelist/internal/domain/access"
	"github.com/bigkaa/opengamelist/internal/service"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyPrincipal — субъект запроса в контексте.
	ContextKeyPrincipal contextKey = "principal"
)

// TokenValidator проверяет токен и возвращает его sub.
// Реализуется *auth.TokenService.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// PrincipalResolver находит субъекта по id пользователя из токена.
// Реализуется *service.UserService.
type PrincipalResolver interface {
	Principal(ctx context.Context, userID string) (access.Principal, error)
}

// BearerAuth возвращает middleware, требующий валидный Bearer token.
// 401 — нет заголовка, неверный формат, невалидный токен или удалённый пользователь.
func BearerAuth(tokens TokenValidator, resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "bearer_auth"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			subject, err := tokens.Validate(r.Context(), tokenString)
			if err != nil {
				var invalid *auth.InvalidTokenError
				reason := "unknown"
				if errors.As(err, &invalid) {
					reason = invalid.Reason
				}
				log.Debug("Токен не прошёл проверку",
					slog.String("reason", reason),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			principal, err := resolver.Principal(r.Context(), subject)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					log.Debug("Пользователь токена не найден", slog.String("user_id", subject))
					apierrors.Unauthorized(w, "Пользователь токена не существует")
					return
				}
				log.Error("Ошибка получения пользователя токена",
					slog.String("user_id", subject),
					slog.String("error", err.Error()),
				)
				apierrors.InternalError(w, "Внутренняя ошибка сервера")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal возвращает контекст с субъектом запроса.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// PrincipalFromContext извлекает субъекта запроса из контекста.
// false — запрос не проходил через BearerAuth.
func PrincipalFromContext(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(access.Principal)
	return p, ok
}
