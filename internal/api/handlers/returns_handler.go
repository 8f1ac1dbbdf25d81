package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkowalczyk/magazyn/internal/api/middleware"
	"github.com/mkowalczyk/magazyn/internal/api/response"
	"github.com/mkowalczyk/magazyn/internal/domain"
	"github.com/mkowalczyk/magazyn/internal/service"
)

type ReturnsHandler struct {
	returnsSvc *service.ReturnsService
}

func NewReturnsHandler(returnsSvc *service.ReturnsService) *ReturnsHandler {
	return &ReturnsHandler{returnsSvc: returnsSvc}
}

type addReturnRequest struct {
	DeviceSerial string `json:"device_serial"`
	DeviceType   string `json:"device_type"`
	DeviceStatus string `json:"device_status"`
}

func (h *ReturnsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := middleware.Principal(r.Context())
	ret, err := h.returnsSvc.Add(r.Context(), req.DeviceSerial, req.DeviceType, req.DeviceStatus, actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, ret)
}

func (h *ReturnsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ReturnFilter{}
	switch r.URL.Query().Get("returned") {
	case "true":
		v := true
		filter.Returned = &v
	case "false":
		v := false
		filter.Returned = &v
	}

	returns, err := h.returnsSvc.List(r.Context(), filter)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, returns)
}

type bulkReturnsRequest struct {
	DeviceIDs    []string `json:"device_ids"`
	DeviceStatus string   `json:"device_status"`
}

func (h *ReturnsHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkReturnsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := middleware.Principal(r.Context())
	result, err := h.returnsSvc.BulkMoveToReturns(r.Context(), req.DeviceIDs, req.DeviceStatus, actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *ReturnsHandler) MarkReturned(w http.ResponseWriter, r *http.Request) {
	flipped, err := h.returnsSvc.MarkReturnedToWarehouse(r.Context())
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"flipped": flipped})
}

type editReturnRequest struct {
	DeviceType   string `json:"device_type"`
	DeviceStatus string `json:"device_status"`
}

func (h *ReturnsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ret, err := h.returnsSvc.Edit(r.Context(), chi.URLParam(r, "id"), req.DeviceType, req.DeviceStatus)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, ret)
}

func (h *ReturnsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.returnsSvc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
