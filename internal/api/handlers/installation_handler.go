package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mkowalczyk/magazyn/internal/api/middleware"
	"github.com/mkowalczyk/magazyn/internal/api/response"
	"github.com/mkowalczyk/magazyn/internal/domain"
	"github.com/mkowalczyk/magazyn/internal/service"
)

type InstallationHandler struct {
	assignmentSvc *service.AssignmentService
	historySvc    *service.HistoryService
}

func NewInstallationHandler(assignmentSvc *service.AssignmentService, historySvc *service.HistoryService) *InstallationHandler {
	return &InstallationHandler{assignmentSvc: assignmentSvc, historySvc: historySvc}
}

type createInstallationRequest struct {
	DeviceID  string   `json:"device_id"`
	Address   string   `json:"adres_klienta"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	OrderKind string   `json:"rodzaj_zlecenia"`
}

func (h *InstallationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInstallationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := middleware.Principal(r.Context())
	inst, err := h.assignmentSvc.Install(r.Context(), service.InstallInput{
		DeviceID:  req.DeviceID,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		OrderKind: req.OrderKind,
	}, actor)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, inst)
}

func (h *InstallationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.InstallationFilter{}

	// Workers only see their own installations; admins can filter freely.
	actor, _ := middleware.Principal(r.Context())
	if userID := q.Get("user_id"); userID != "" {
		filter.UserID = &userID
	} else if !actor.IsAdmin() {
		uid := actor.UserID
		filter.UserID = &uid
	}

	if kind := q.Get("rodzaj_zlecenia"); kind != "" {
		filter.OrderKind = &kind
	}
	if from := q.Get("date_from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid date_from")
			return
		}
		filter.From = &t
	}
	if to := q.Get("date_to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid date_to")
			return
		}
		filter.To = &t
	}

	installations, err := h.historySvc.Installations(r.Context(), filter)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, installations)
}

func (h *InstallationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.historySvc.InstallationStats(r.Context())
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}
