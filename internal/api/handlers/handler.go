// handler.go — основной обработчик API каталога.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/opengamelist/internal/api/errors"
	"github.com/bigkaa/opengamelist/internal/api/middleware"
	"github.com/bigkaa/opengamelist/internal/api/openapi"
	"github.com/bigkaa/opengamelist/internal/domain/access"
	"github.com/bigkaa/opengamelist/internal/service"
)

// maxBodyBytes — предельный размер тела запроса.
const maxBodyBytes = 1 << 20

// APIHandler — основной обработчик API каталога.
type APIHandler struct {
	health    *HealthHandler
	items     *service.ItemService
	ranking   *service.RankingService
	comments  *service.CommentTreeManager
	users     *service.UserService
	validator *openapi.Validator
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	items *service.ItemService,
	ranking *service.RankingService,
	comments *service.CommentTreeManager,
	users *service.UserService,
	validator *openapi.Validator,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:    health,
		items:     items,
		ranking:   ranking,
		comments:  comments,
		users:     users,
		validator: validator,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPI — GET /openapi.yaml, встроенный контракт.
func (h *APIHandler) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.Document())
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Неклассифицированные ошибки логируются и отдаются как 500 INTERNAL_ERROR.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrInvalidPayload):
		apierrors.InvalidPayload(w, err.Error())
	default:
		h.logger.Error("Ошибка обработки запроса",
			slog.String("operation", op),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// decodeBody читает тело, проверяет его по схеме контракта и
// декодирует в dst. При ошибке ответ уже записан.
func (h *APIHandler) decodeBody(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		apierrors.InvalidPayload(w, "Не удалось прочитать тело запроса")
		return false
	}

	if err := h.validator.ValidateBody(schema, body); err != nil {
		if errors.Is(err, openapi.ErrInvalidBody) {
			apierrors.InvalidPayload(w, err.Error())
			return false
		}
		h.logger.Error("Ошибка проверки тела запроса",
			slog.String("schema", schema),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		apierrors.InvalidPayload(w, fmt.Sprintf("Некорректное тело запроса: %v", err))
		return false
	}
	return true
}

// principal возвращает субъекта запроса, выставленного BearerAuth.
func principal(w http.ResponseWriter, r *http.Request) (access.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || p.UserID == "" {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return access.Principal{}, false
	}
	return p, true
}

// pathParam связывает параметр пути name с dest (style simple),
// как это делают обёртки oapi-codegen. 400 при несовпадении типа.
func pathParam(w http.ResponseWriter, r *http.Request, name string, dest any) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр %s: %v", name, err))
		return false
	}
	return true
}
