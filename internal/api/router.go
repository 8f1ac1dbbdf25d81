package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mkowalczyk/magazyn/internal/api/handlers"
	"github.com/mkowalczyk/magazyn/internal/api/middleware"
	"github.com/mkowalczyk/magazyn/internal/api/response"
	"github.com/mkowalczyk/magazyn/internal/auth"
	"github.com/mkowalczyk/magazyn/internal/service"
)

type RouterDeps struct {
	UserSvc       *service.UserService
	DeviceSvc     *service.DeviceService
	AssignmentSvc *service.AssignmentService
	ReturnsSvc    *service.ReturnsService
	InventorySvc  *service.InventoryService
	HistorySvc    *service.HistoryService
	JWTManager    *auth.JWTManager
	CORSOrigins   string
	Logger        *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	metrics := middleware.NewMetrics()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(metrics.Middleware())

	origins := strings.Split(deps.CORSOrigins, ",")
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", metrics.Handler())

	authHandler := handlers.NewAuthHandler(deps.UserSvc, deps.JWTManager)
	userHandler := handlers.NewUserHandler(deps.UserSvc)
	deviceHandler := handlers.NewDeviceHandler(deps.DeviceSvc, deps.AssignmentSvc)
	returnsHandler := handlers.NewReturnsHandler(deps.ReturnsSvc)
	inventoryHandler := handlers.NewInventoryHandler(deps.InventorySvc)
	installHandler := handlers.NewInstallationHandler(deps.AssignmentSvc, deps.HistorySvc)
	activityHandler := handlers.NewActivityHandler(deps.HistorySvc)

	r.Route("/api", func(r chi.Router) {
		// The clients poll every 5-10 seconds; generous but bounded.
		r.Use(middleware.RateLimit(30, 60))

		r.Post("/auth/login", authHandler.Login)

		// Any authenticated role.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.JWTManager))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Get("/workers", userHandler.Workers)

			r.Get("/devices", deviceHandler.List)
			r.Get("/devices/scan/{code}", deviceHandler.Scan)
			r.Get("/devices/inventory/{userID}", inventoryHandler.UserInventory)
			r.Get("/devices/{id}", deviceHandler.Get)

			r.Post("/installations", installHandler.Create)
			r.Get("/installations", installHandler.List)
			r.Get("/installations/stats", installHandler.Stats)

			r.Get("/activity-logs/device/{serial}", activityHandler.DeviceHistory)
			r.Get("/activity-logs/user/{id}", activityHandler.UserHistory)
		})

		// Admin only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.JWTManager))
			r.Use(middleware.RequireAdmin)

			r.Get("/users", userHandler.List)
			r.Put("/users/{id}/role", userHandler.UpdateRole)

			r.Post("/devices", deviceHandler.Create)
			r.Post("/devices/import", deviceHandler.Import)
			r.Post("/devices/assign-multiple", deviceHandler.AssignBulk)
			r.Get("/devices/inventory/summary", inventoryHandler.Summary)
			r.Post("/devices/{id}/assign", deviceHandler.Assign)
			r.Post("/devices/{id}/transfer", deviceHandler.Transfer)
			r.Post("/devices/{id}/restore", deviceHandler.Restore)

			r.Post("/returns", returnsHandler.Add)
			r.Get("/returns", returnsHandler.List)
			r.Post("/returns/bulk", returnsHandler.Bulk)
			r.Post("/returns/mark-returned", returnsHandler.MarkReturned)
			r.Put("/returns/{id}", returnsHandler.Edit)
			r.Delete("/returns/{id}", returnsHandler.Delete)

			r.Get("/activity-logs", activityHandler.List)
		})
	})

	return r
}
