// users.go — обработчики /users и /auth/token endpoints.
package handlers

import (
	"net/http"

	"github.com/bigkaa/opengamelist/internal/api/openapi"
)

// tokenType — тип выпускаемого токена в ответе /auth/token.
const tokenType = "Bearer"

// RegisterUser — POST /users.
// 409 если username или email уже заняты.
func (h *APIHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeBody(w, r, openapi.SchemaRegisterRequest, &req) {
		return
	}

	u, err := h.users.Register(r.Context(), req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err, "register_user")
		return
	}

	writeJSON(w, http.StatusCreated, mapUser(u))
}

// GetUser — GET /users/{id}.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	var id string
	if !pathParam(w, r, "id", &id) {
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "get_user")
		return
	}

	writeJSON(w, http.StatusOK, mapUser(u))
}

// DeleteUser — DELETE /users/{id}.
// Доступ: сам пользователь или администратор. 409 пока у пользователя
// есть комментарии.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var id string
	if !pathParam(w, r, "id", &id) {
		return
	}

	if err := h.users.Delete(r.Context(), p, id); err != nil {
		h.writeServiceError(w, r, err, "delete_user")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// IssueToken — POST /auth/token.
// Проверяет username и пароль и выпускает Bearer token.
func (h *APIHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !h.decodeBody(w, r, openapi.SchemaTokenRequest, &req) {
		return
	}

	tok, u, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "issue_token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     tok.Value,
		TokenType: tokenType,
		ExpiresAt: tok.ExpiresAt.UTC(),
		UserID:    u.ID,
	})
}
