package overtimehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"opsportal/internal/domain/audit"
	"opsportal/internal/domain/auth"
	"opsportal/internal/domain/core"
	"opsportal/internal/domain/notifications"
	"opsportal/internal/domain/overtime"
	"opsportal/internal/domain/timeslot"
	"opsportal/internal/transport/http/api"
	"opsportal/internal/transport/http/middleware"
	"opsportal/internal/transport/http/shared"
)

type Handler struct {
	Service *overtime.Service
	Core    *core.Store
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *overtime.Service, coreStore *core.Store, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Core: coreStore, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/overtime", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOvertimeRead)).Get("/requests", h.handleList)
		r.With(middleware.RequirePermission(auth.PermOvertimeRead)).Get("/requests/{requestID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermOvertimeWrite)).Post("/requests", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermOvertimeApprove)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermOvertimeApprove)).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermOvertimeWrite)).Post("/requests/{requestID}/cancel", h.handleCancel)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		EmployeeID string `json:"employeeId"`
		Date       string `json:"date"`
		StartTime  string `json:"startTime"`
		EndTime    string `json:"endTime"`
		Reason     string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID, failed := h.resolveEmployee(w, r, user, payload.EmployeeID)
	if failed {
		return
	}

	req, err := h.Service.CreateRequest(r.Context(), user.UnitID, employeeID, payload.Date, payload.StartTime, payload.EndTime, payload.Reason)
	if err != nil {
		h.failDomain(w, r, err, "overtime_create_failed", "failed to create overtime request")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "overtime.request.create", "overtime_request", req.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit overtime.request.create failed", "err", err)
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
	result, err := h.Service.ListRequests(r.Context(), user.UnitID, employeeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "overtime_list_failed", "failed to list overtime requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"requests": result.Requests, "total": result.Total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.GetRequest(r.Context(), user.UnitID, chi.URLParam(r, "requestID"))
	if err != nil {
		h.failDomain(w, r, err, "overtime_get_failed", "failed to load overtime request")
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	req, err := h.Service.Approve(r.Context(), user.UnitID, requestID, user.UserID, time.Now())
	if err != nil {
		h.failDomain(w, r, err, "overtime_approve_failed", "failed to approve overtime request")
		return
	}

	h.notifyEmployee(r, user.UnitID, req.EmployeeID, notifications.TypeOvertimeApproved,
		"Overtime request approved",
		fmt.Sprintf("Your overtime on %s (%s-%s) was approved.", req.Date.Format("2006-01-02"), req.StartTime, req.EndTime))
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "overtime.request.approve", "overtime_request", requestID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit overtime.request.approve failed", "err", err)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	req, err := h.Service.Reject(r.Context(), user.UnitID, requestID, user.UserID, payload.Reason, time.Now())
	if err != nil {
		h.failDomain(w, r, err, "overtime_reject_failed", "failed to reject overtime request")
		return
	}

	h.notifyEmployee(r, user.UnitID, req.EmployeeID, notifications.TypeOvertimeRejected,
		"Overtime request rejected",
		fmt.Sprintf("Your overtime on %s was rejected.", req.Date.Format("2006-01-02")))
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "overtime.request.reject", "overtime_request", requestID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit overtime.request.reject failed", "err", err)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID, failed := h.resolveEmployee(w, r, user, "")
	if failed {
		return
	}

	requestID := chi.URLParam(r, "requestID")
	req, err := h.Service.Cancel(r.Context(), user.UnitID, requestID, employeeID)
	if err != nil {
		h.failDomain(w, r, err, "overtime_cancel_failed", "failed to cancel overtime request")
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) resolveEmployee(w http.ResponseWriter, r *http.Request, user auth.UserContext, requested string) (string, bool) {
	if user.Role == auth.RoleAdmin && requested != "" {
		return requested, false
	}
	employeeID, err := h.Core.EmployeeIDByUserID(r.Context(), user.UnitID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusForbidden, "no_employee_record", "no employee record for this user", middleware.GetRequestID(r.Context()))
		return "", true
	}
	return employeeID, false
}

func (h *Handler) notifyEmployee(r *http.Request, unitID, employeeID, ntype, title, body string) {
	userID, err := h.Core.UserIDByEmployeeID(r.Context(), unitID, employeeID)
	if err != nil || userID == "" {
		return
	}
	if err := h.Notify.Create(r.Context(), unitID, userID, ntype, title, body); err != nil {
		slog.Warn("overtime notification failed", "employeeId", employeeID, "err", err)
	}
}

func (h *Handler) failDomain(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	var overlapErr *overtime.OverlapError
	switch {
	case errors.As(err, &overlapErr):
		api.Fail(w, http.StatusConflict, "overlap_conflict", overlapErr.Message, requestID)
	case errors.Is(err, timeslot.ErrInvalidTimeFormat), errors.Is(err, timeslot.ErrInvalidWindow):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_time", err.Error(), requestID)
	case errors.Is(err, overtime.ErrInvalidDate):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_date", err.Error(), requestID)
	case errors.Is(err, overtime.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "overtime request not found", requestID)
	case errors.Is(err, overtime.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "overtime request is not pending", requestID)
	case errors.Is(err, overtime.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to act on this overtime request", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
