package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkowalczyk/magazyn/internal/api/response"
	"github.com/mkowalczyk/magazyn/internal/domain"
	"github.com/mkowalczyk/magazyn/internal/service"
)

type ActivityHandler struct {
	historySvc *service.HistoryService
}

func NewActivityHandler(historySvc *service.HistoryService) *ActivityHandler {
	return &ActivityHandler{historySvc: historySvc}
}

func parseLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ActivityFilter{Limit: parseLimit(r)}

	if a := r.URL.Query().Get("action"); a != "" {
		action := domain.ActionType(a)
		if !action.Valid() {
			response.Error(w, http.StatusBadRequest, "unknown action type")
			return
		}
		filter.ActionType = &action
	}

	entries, err := h.historySvc.List(r.Context(), filter)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entries)
}

func (h *ActivityHandler) DeviceHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.historySvc.DeviceHistory(r.Context(), chi.URLParam(r, "serial"), parseLimit(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, history)
}

func (h *ActivityHandler) UserHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.historySvc.UserHistory(r.Context(), chi.URLParam(r, "id"), parseLimit(r))
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entries)
}
