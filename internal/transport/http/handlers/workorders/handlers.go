package workordershandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsportal/internal/domain/audit"
	"opsportal/internal/domain/auth"
	"opsportal/internal/domain/core"
	"opsportal/internal/domain/notifications"
	"opsportal/internal/domain/workorders"
	"opsportal/internal/transport/http/api"
	"opsportal/internal/transport/http/middleware"
	"opsportal/internal/transport/http/shared"
)

type Handler struct {
	Service *workorders.Service
	Core    *core.Store
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *workorders.Service, coreStore *core.Store, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Core: coreStore, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workorders", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermWorkOrdersRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermWorkOrdersRead)).Get("/{orderID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermWorkOrdersWrite)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermWorkOrdersManage)).Post("/{orderID}/assign", h.handleAssign)
		r.With(middleware.RequirePermission(auth.PermWorkOrdersManage)).Post("/{orderID}/status", h.handleMove)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Location    string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	order, err := h.Service.Create(r.Context(), user.UnitID, user.UserID, payload.Title, payload.Description, payload.Location)
	if err != nil {
		h.failDomain(w, r, err, "workorder_create_failed", "failed to create work order")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "workorder.create", "work_order", order.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, order); err != nil {
		slog.Warn("audit workorder.create failed", "err", err)
	}
	api.Created(w, order, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 20, 100)
	orders, total, err := h.Service.List(r.Context(), user.UnitID, r.URL.Query().Get("status"), r.URL.Query().Get("assignedTo"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "workorder_list_failed", "failed to list work orders", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"workOrders": orders, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	order, err := h.Service.Get(r.Context(), user.UnitID, chi.URLParam(r, "orderID"))
	if err != nil {
		h.failDomain(w, r, err, "workorder_get_failed", "failed to load work order")
		return
	}
	api.Success(w, order, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		EmployeeID string `json:"employeeId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.EmployeeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "employeeId is required", middleware.GetRequestID(r.Context()))
		return
	}

	orderID := chi.URLParam(r, "orderID")
	order, err := h.Service.Assign(r.Context(), user.UnitID, orderID, payload.EmployeeID)
	if err != nil {
		h.failDomain(w, r, err, "workorder_assign_failed", "failed to assign work order")
		return
	}

	if userID, err := h.Core.UserIDByEmployeeID(r.Context(), user.UnitID, payload.EmployeeID); err == nil && userID != "" {
		if err := h.Notify.Create(r.Context(), user.UnitID, userID, notifications.TypeWorkOrderAssigned,
			"Work order assigned", "You were assigned the work order: "+order.Title); err != nil {
			slog.Warn("workorder notification failed", "err", err)
		}
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "workorder.assign", "work_order", orderID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, order); err != nil {
		slog.Warn("audit workorder.assign failed", "err", err)
	}
	api.Success(w, order, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Status == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "status is required", middleware.GetRequestID(r.Context()))
		return
	}

	orderID := chi.URLParam(r, "orderID")
	order, err := h.Service.Move(r.Context(), user.UnitID, orderID, payload.Status)
	if err != nil {
		h.failDomain(w, r, err, "workorder_move_failed", "failed to update work order status")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "workorder.status", "work_order", orderID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, order); err != nil {
		slog.Warn("audit workorder.status failed", "err", err)
	}
	api.Success(w, order, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failDomain(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	var invalid *workorders.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		api.Fail(w, http.StatusConflict, "invalid_transition", invalid.Error(), requestID)
	case errors.Is(err, workorders.ErrMissingTitle):
		api.Fail(w, http.StatusUnprocessableEntity, "missing_title", err.Error(), requestID)
	case errors.Is(err, workorders.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "work order not found", requestID)
	case errors.Is(err, workorders.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to act on this work order", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
