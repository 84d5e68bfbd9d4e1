// comments.go — обработчики /comments endpoints.
package handlers

import (
	"net/http"

	"github.com/bigkaa/opengamelist/internal/api/openapi"
)

// CreateComment — POST /comments.
// Автор — пользователь из токена. 404 если нет игры или родителя,
// 409 если родитель относится к другой игре.
func (h *APIHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if !h.decodeBody(w, r, openapi.SchemaCommentInput, &req) {
		return
	}

	c, err := h.comments.Add(r.Context(), p, req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err, "create_comment")
		return
	}

	writeJSON(w, http.StatusOK, mapComment(c))
}

// GetComment — GET /comments/{id}.
func (h *APIHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	c, err := h.comments.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "get_comment")
		return
	}

	writeJSON(w, http.StatusOK, mapComment(c))
}

// ListCommentChildren — GET /comments/{id}/children.
// Прямые ответы в порядке добавления.
func (h *APIHandler) ListCommentChildren(w http.ResponseWriter, r *http.Request) {
	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	children, err := h.comments.ListChildren(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "list_comment_children")
		return
	}

	writeJSON(w, http.StatusOK, mapComments(children))
}

// DeleteComment — DELETE /comments/{id}.
// Доступ: автор или администратор. 409 пока есть ответы.
func (h *APIHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	if err := h.comments.Delete(r.Context(), p, id); err != nil {
		h.writeServiceError(w, r, err, "delete_comment")
		return
	}

	w.WriteHeader(http.StatusOK)
}
