package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkowalczyk/magazyn/internal/api/response"
	"github.com/mkowalczyk/magazyn/internal/service"
)

type InventoryHandler struct {
	inventorySvc *service.InventoryService
}

func NewInventoryHandler(inventorySvc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventorySvc: inventorySvc}
}

func (h *InventoryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.inventorySvc.Summary(r.Context())
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, summary)
}

func (h *InventoryHandler) UserInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.inventorySvc.UserInventory(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, inv)
}
