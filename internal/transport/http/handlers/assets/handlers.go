package assetshandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"opsportal/internal/domain/assets"
	"opsportal/internal/domain/audit"
	"opsportal/internal/domain/auth"
	"opsportal/internal/platform/jobs"
	"opsportal/internal/transport/http/api"
	"opsportal/internal/transport/http/middleware"
	"opsportal/internal/transport/http/shared"
)

type Handler struct {
	Service *assets.Service
	Jobs    *jobs.Service
	Audit   *audit.Service
}

func NewHandler(service *assets.Service, jobsSvc *jobs.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAssetsRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAssetsRead)).Get("/dates", h.handleListDates)
		r.With(middleware.RequirePermission(auth.PermAssetsRead)).Get("/{assetID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAssetsWrite)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermAssetsWrite)).Put("/{assetID}/dates", h.handleUpsertDate)
		r.With(middleware.RequirePermission(auth.PermAssetsWrite)).Post("/dates/{dateID}/resolve", h.handleResolveDate)
		r.With(middleware.RequirePermission(auth.PermAssetsWrite)).Post("/reminders/run", h.handleRunReminders)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Category   string `json:"category"`
		Name       string `json:"name"`
		Identifier string `json:"identifier"`
		AssignedTo string `json:"assignedTo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" || payload.Category == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "category and name are required", middleware.GetRequestID(r.Context()))
		return
	}

	asset, err := h.Service.CreateAsset(r.Context(), user.UnitID, payload.Category, payload.Name, payload.Identifier, payload.AssignedTo)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "asset_create_failed", "failed to create asset", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "asset.create", "asset", asset.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, asset); err != nil {
		slog.Warn("audit asset.create failed", "err", err)
	}
	api.Created(w, asset, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.ListAssets(r.Context(), user.UnitID, r.URL.Query().Get("category"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "asset_list_failed", "failed to list assets", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	asset, err := h.Service.GetAsset(r.Context(), user.UnitID, chi.URLParam(r, "assetID"))
	if errors.Is(err, assets.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "asset not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "asset_get_failed", "failed to load asset", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, asset, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpsertDate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		DateType  string `json:"dateType"`
		DateValue string `json:"dateValue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.DateType == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "dateType and dateValue are required", middleware.GetRequestID(r.Context()))
		return
	}
	dateValue, err := shared.ParseDate(payload.DateValue)
	if err != nil || dateValue.IsZero() {
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_date", "dateValue must be YYYY-MM-DD", middleware.GetRequestID(r.Context()))
		return
	}

	date, err := h.Service.UpsertDate(r.Context(), user.UnitID, chi.URLParam(r, "assetID"), payload.DateType, dateValue)
	if errors.Is(err, assets.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "asset not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "asset_date_failed", "failed to save asset date", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "asset.date_upsert", "asset_date", date.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, date); err != nil {
		slog.Warn("audit asset.date_upsert failed", "err", err)
	}
	api.Success(w, date, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResolveDate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	dateID := chi.URLParam(r, "dateID")
	err := h.Service.ResolveDate(r.Context(), user.UnitID, dateID)
	if errors.Is(err, assets.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "asset date not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "asset_date_resolve_failed", "failed to resolve asset date", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "asset.date_resolve", "asset_date", dateID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit asset.date_resolve failed", "err", err)
	}
	api.Success(w, map[string]string{"id": dateID, "status": assets.DateStatusResolved}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDates(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	dates, err := h.Service.ListDates(r.Context(), user.UnitID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "asset_dates_failed", "failed to list asset dates", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dates, middleware.GetRequestID(r.Context()))
}

// handleRunReminders triggers a reminder pass for the caller's unit without
// waiting for the scheduler tick. The run is recorded like any scheduled job.
func (h *Handler) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	policies := assets.DefaultPolicies()
	details, err := h.Jobs.RunNow(r.Context(), jobs.JobAssetReminders, user.UnitID, func(ctx context.Context) (any, error) {
		return h.Service.RunReminders(ctx, user.UnitID, policies, time.Now())
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reminder_run_failed", "reminder run failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}
