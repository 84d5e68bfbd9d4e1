// items.go — обработчики /items endpoints.
package handlers

import (
	"net/http"

	"github.com/bigkaa/opengamelist/internal/api/openapi"
)

// GetItem — GET /items/{id}.
// Возвращает игру и увеличивает её счётчик просмотров.
func (h *APIHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	it, err := h.items.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "get_item")
		return
	}

	writeJSON(w, http.StatusOK, mapItem(it))
}

// CreateItem — POST /items.
// Владелец игры — пользователь из токена.
func (h *APIHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req itemRequest
	if !h.decodeBody(w, r, openapi.SchemaItemInput, &req) {
		return
	}

	it, err := h.items.Create(r.Context(), p, req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err, "create_item")
		return
	}

	writeJSON(w, http.StatusOK, mapItem(it))
}

// UpdateItem — PUT /items/{id}.
// Доступ: владелец или администратор.
func (h *APIHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	var req itemRequest
	if !h.decodeBody(w, r, openapi.SchemaItemInput, &req) {
		return
	}

	it, err := h.items.Update(r.Context(), p, id, req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err, "update_item")
		return
	}

	writeJSON(w, http.StatusOK, mapItem(it))
}

// DeleteItem — DELETE /items/{id}.
// Удаляет игру вместе со всеми её комментариями.
// Доступ: владелец или администратор.
func (h *APIHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	if err := h.items.Delete(r.Context(), p, id); err != nil {
		h.writeServiceError(w, r, err, "delete_item")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ListItemComments — GET /items/{id}/comments.
func (h *APIHandler) ListItemComments(w http.ResponseWriter, r *http.Request) {
	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	comments, err := h.comments.ListByItem(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "list_item_comments")
		return
	}

	writeJSON(w, http.StatusOK, mapComments(comments))
}
