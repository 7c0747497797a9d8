package advanceshandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsportal/internal/domain/advances"
	"opsportal/internal/domain/audit"
	"opsportal/internal/domain/auth"
	"opsportal/internal/domain/core"
	"opsportal/internal/domain/notifications"
	"opsportal/internal/transport/http/api"
	"opsportal/internal/transport/http/middleware"
	"opsportal/internal/transport/http/shared"
)

type Handler struct {
	Service *advances.Service
	Core    *core.Store
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *advances.Service, coreStore *core.Store, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Core: coreStore, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/advances", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAdvancesRead)).Get("/requests", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAdvancesRead)).Get("/requests/{requestID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAdvancesWrite)).Post("/requests", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermAdvancesApprove)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermAdvancesApprove)).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermAdvancesWrite)).Post("/requests/{requestID}/cancel", h.handleCancel)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Amount          float64 `json:"amount"`
		RepaymentMonths int     `json:"repaymentMonths"`
		Reason          string  `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID, err := h.Core.EmployeeIDByUserID(r.Context(), user.UnitID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusForbidden, "no_employee_record", "no employee record for this user", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.CreateRequest(r.Context(), user.UnitID, employeeID, payload.Amount, payload.RepaymentMonths, payload.Reason)
	if err != nil {
		h.failDomain(w, r, err, "advance_create_failed", "failed to create advance request")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "advance.request.create", "advance_request", req.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit advance.request.create failed", "err", err)
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := r.URL.Query().Get("employeeId")
	if user.Role == auth.RoleEmployee {
		own, err := h.Core.EmployeeIDByUserID(r.Context(), user.UnitID, user.UserID)
		if err != nil {
			api.Fail(w, http.StatusForbidden, "no_employee_record", "no employee record for this user", middleware.GetRequestID(r.Context()))
			return
		}
		employeeID = own
	}

	page := shared.ParsePagination(r, 20, 100)
	requests, total, err := h.Service.ListRequests(r.Context(), user.UnitID, employeeID, r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "advance_list_failed", "failed to list advance requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"requests": requests, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.GetRequest(r.Context(), user.UnitID, chi.URLParam(r, "requestID"))
	if err != nil {
		h.failDomain(w, r, err, "advance_get_failed", "failed to load advance request")
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	var req advances.Request
	var err error
	action := "advance.request.reject"
	outcome := "rejected"
	if approve {
		req, err = h.Service.Approve(r.Context(), user.UnitID, requestID, user.UserID, payload.Note)
		action = "advance.request.approve"
		outcome = "approved"
	} else {
		req, err = h.Service.Reject(r.Context(), user.UnitID, requestID, user.UserID, payload.Note)
	}
	if err != nil {
		h.failDomain(w, r, err, "advance_decide_failed", "failed to decide advance request")
		return
	}

	h.notifyEmployee(r, user.UnitID, req.EmployeeID,
		"Advance request "+outcome,
		fmt.Sprintf("Your advance request for %.2f was %s.", req.Amount, outcome))
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, action, "advance_request", requestID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit advance decision failed", "err", err)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID, err := h.Core.EmployeeIDByUserID(r.Context(), user.UnitID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusForbidden, "no_employee_record", "no employee record for this user", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.Cancel(r.Context(), user.UnitID, chi.URLParam(r, "requestID"), employeeID)
	if err != nil {
		h.failDomain(w, r, err, "advance_cancel_failed", "failed to cancel advance request")
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) notifyEmployee(r *http.Request, unitID, employeeID, title, body string) {
	userID, err := h.Core.UserIDByEmployeeID(r.Context(), unitID, employeeID)
	if err != nil || userID == "" {
		return
	}
	if err := h.Notify.Create(r.Context(), unitID, userID, notifications.TypeAdvanceDecided, title, body); err != nil {
		slog.Warn("advance notification failed", "employeeId", employeeID, "err", err)
	}
}

func (h *Handler) failDomain(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, advances.ErrInvalidAmount), errors.Is(err, advances.ErrInvalidTerm):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_request", err.Error(), requestID)
	case errors.Is(err, advances.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "advance request not found", requestID)
	case errors.Is(err, advances.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "advance request is not pending", requestID)
	case errors.Is(err, advances.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to act on this advance request", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
