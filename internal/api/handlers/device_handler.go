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

type DeviceHandler struct {
	deviceSvc     *service.DeviceService
	assignmentSvc *service.AssignmentService
}

func NewDeviceHandler(deviceSvc *service.DeviceService, assignmentSvc *service.AssignmentService) *DeviceHandler {
	return &DeviceHandler{deviceSvc: deviceSvc, assignmentSvc: assignmentSvc}
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.DeviceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := middleware.Principal(r.Context())
	device, err := h.deviceSvc.Create(r.Context(), in, actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, device)
}

type importRequest struct {
	Rows []service.DeviceInput `json:"rows"`
}

func (h *DeviceHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := middleware.Principal(r.Context())
	result, err := h.deviceSvc.Import(r.Context(), req.Rows, actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.DeviceFilter{}

	if s := q.Get("status"); s != "" {
		status := domain.DeviceStatus(s)
		if !status.Valid() {
			response.Error(w, http.StatusBadRequest, "unknown status")
			return
		}
		filter.Status = &status
	}
	if owner := q.Get("assigned_to"); owner != "" {
		filter.OwnerID = &owner
	}

	devices, err := h.deviceSvc.List(r.Context(), filter)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, devices)
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	device, err := h.deviceSvc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, device)
}

func (h *DeviceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.Principal(r.Context())
	device, err := h.deviceSvc.Scan(r.Context(), chi.URLParam(r, "code"), actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, device)
}

type assignRequest struct {
	WorkerID string `json:"worker_id"`
}

func (h *DeviceHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := middleware.Principal(r.Context())
	device, err := h.assignmentSvc.Assign(r.Context(), chi.URLParam(r, "id"), req.WorkerID, actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, device)
}

type assignBulkRequest struct {
	DeviceIDs []string `json:"device_ids"`
	WorkerID  string   `json:"worker_id"`
}

func (h *DeviceHandler) AssignBulk(w http.ResponseWriter, r *http.Request) {
	var req assignBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := middleware.Principal(r.Context())
	result, err := h.assignmentSvc.AssignBulk(r.Context(), req.DeviceIDs, req.WorkerID, actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *DeviceHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := middleware.Principal(r.Context())
	device, err := h.assignmentSvc.Transfer(r.Context(), chi.URLParam(r, "id"), req.WorkerID, actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, device)
}

func (h *DeviceHandler) Restore(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.Principal(r.Context())
	device, err := h.assignmentSvc.Restore(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, device)
}
