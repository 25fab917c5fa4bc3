package handler

import (
	"net/http"

	"github.com/ralfiz/bizdesk/internal/model"
)

type searchResponse struct {
	Results []model.SearchResult `json:"results"`
}

// Search отвечает на запрос глобального поиска. Поле results присутствует всегда.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, "search", err)
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}
