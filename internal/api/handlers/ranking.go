// ranking.go — обработчики рейтингов /items/GetLatest, /items/GetMostViewed,
// /items/GetRandom. Необязательный сегмент {n} задаёт количество.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/opengamelist/internal/domain/ranking"
)

// GetLatest — GET /items/GetLatest[/{n}].
func (h *APIHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	h.rankingQuery(w, r, ranking.Latest)
}

// GetMostViewed — GET /items/GetMostViewed[/{n}].
func (h *APIHandler) GetMostViewed(w http.ResponseWriter, r *http.Request) {
	h.rankingQuery(w, r, ranking.MostViewed)
}

// GetRandom — GET /items/GetRandom[/{n}].
func (h *APIHandler) GetRandom(w http.ResponseWriter, r *http.Request) {
	h.rankingQuery(w, r, ranking.Random)
}

// rankingQuery разбирает необязательный {n} и выполняет запрос рейтинга.
func (h *APIHandler) rankingQuery(w http.ResponseWriter, r *http.Request, mode ranking.Mode) {
	var n *int
	if chi.URLParam(r, "n") != "" {
		var count int
		if !pathParam(w, r, "n", &count) {
			return
		}
		n = &count
	}

	items, err := h.ranking.Query(r.Context(), mode, n)
	if err != nil {
		h.writeServiceError(w, r, err, "ranking_"+string(mode))
		return
	}

	writeJSON(w, http.StatusOK, mapItems(items))
}
