package payrollhandler

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
	"opsportal/internal/domain/payroll"
	"opsportal/internal/transport/http/api"
	"opsportal/internal/transport/http/middleware"
	"opsportal/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Core    *core.Store
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *payroll.Service, coreStore *core.Store, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Core: coreStore, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/records", h.handleList)
		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/records/{recordID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite)).Post("/records", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite)).Put("/records/{recordID}/amounts", h.handleUpdateAmounts)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite)).Post("/records/{recordID}/send", h.handleSend)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite)).Post("/records/{recordID}/reissue", h.handleReissue)
		r.With(middleware.RequirePermission(auth.PermPayrollSign)).Post("/records/{recordID}/sign", h.handleSign)
		r.With(middleware.RequirePermission(auth.PermPayrollSign)).Post("/records/{recordID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite)).Post("/records/{recordID}/complete", h.handleComplete)
		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/records/{recordID}/payslip", h.handlePayslip)
	})
}

type amountsPayload struct {
	BaseSalary  float64 `json:"baseSalary"`
	Allowances  float64 `json:"allowances"`
	Deductions  float64 `json:"deductions"`
	Notes       string  `json:"notes"`
	PayrollDate string  `json:"payrollDate"`
}

func (p amountsPayload) toAmounts() (payroll.Amounts, error) {
	amounts := payroll.Amounts{
		BaseSalary: p.BaseSalary,
		Allowances: p.Allowances,
		Deductions: p.Deductions,
		Notes:      p.Notes,
	}
	if p.PayrollDate != "" {
		parsed, err := shared.ParseDate(p.PayrollDate)
		if err != nil {
			return payroll.Amounts{}, err
		}
		amounts.PayrollDate = &parsed
	}
	return amounts, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		EmployeeID string `json:"employeeId"`
		Period     string `json:"period"`
		amountsPayload
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	amounts, err := payload.toAmounts()
	if err != nil {
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_date", "payrollDate must be YYYY-MM-DD", middleware.GetRequestID(r.Context()))
		return
	}
	record, err := h.Service.CreateRecord(r.Context(), user.UnitID, payload.EmployeeID, payload.Period, amounts)
	if err != nil {
		h.failDomain(w, r, err, "payroll_create_failed", "failed to create payroll record")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "payroll.record.create", "payroll_record", record.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, record); err != nil {
		slog.Warn("audit payroll.record.create failed", "err", err)
	}
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateAmounts(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload amountsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	amounts, err := payload.toAmounts()
	if err != nil {
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_date", "payrollDate must be YYYY-MM-DD", middleware.GetRequestID(r.Context()))
		return
	}

	recordID := chi.URLParam(r, "recordID")
	before, err := h.Service.GetRecord(r.Context(), user.UnitID, recordID)
	if err != nil {
		h.failDomain(w, r, err, "payroll_get_failed", "failed to load payroll record")
		return
	}

	record, err := h.Service.UpdateAmounts(r.Context(), user.UnitID, recordID, amounts)
	if err != nil {
		h.failDomain(w, r, err, "payroll_update_failed", "failed to update payroll record")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "payroll.record.update", "payroll_record", recordID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), before, record); err != nil {
		slog.Warn("audit payroll.record.update failed", "err", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	recordID := chi.URLParam(r, "recordID")
	record, err := h.Service.SendForSignature(r.Context(), user.UnitID, recordID)
	if err != nil {
		h.failDomain(w, r, err, "payroll_send_failed", "failed to send payroll record for signature")
		return
	}

	h.notifyEmployee(r, user.UnitID, record.EmployeeID, notifications.TypePayrollIssued,
		"Payslip ready to sign",
		fmt.Sprintf("Your payslip for %s is ready for signature.", record.Period))
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "payroll.record.send", "payroll_record", recordID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, record); err != nil {
		slog.Warn("audit payroll.record.send failed", "err", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReissue(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	recordID := chi.URLParam(r, "recordID")
	record, err := h.Service.Reissue(r.Context(), user.UnitID, recordID)
	if err != nil {
		h.failDomain(w, r, err, "payroll_reissue_failed", "failed to reissue payroll record")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "payroll.record.reissue", "payroll_record", recordID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, record); err != nil {
		slog.Warn("audit payroll.record.reissue failed", "err", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID, failed := h.resolveEmployee(w, r, user)
	if failed {
		return
	}

	recordID := chi.URLParam(r, "recordID")
	record, err := h.Service.Sign(r.Context(), user.UnitID, recordID, employeeID, time.Now())
	if err != nil {
		h.failDomain(w, r, err, "payroll_sign_failed", "failed to sign payroll record")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "payroll.record.sign", "payroll_record", recordID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, record); err != nil {
		slog.Warn("audit payroll.record.sign failed", "err", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
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

	employeeID, failed := h.resolveEmployee(w, r, user)
	if failed {
		return
	}

	recordID := chi.URLParam(r, "recordID")
	record, err := h.Service.RejectByEmployee(r.Context(), user.UnitID, recordID, employeeID, payload.Reason)
	if err != nil {
		h.failDomain(w, r, err, "payroll_reject_failed", "failed to reject payroll record")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "payroll.record.reject", "payroll_record", recordID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, record); err != nil {
		slog.Warn("audit payroll.record.reject failed", "err", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	recordID := chi.URLParam(r, "recordID")
	record, err := h.Service.Complete(r.Context(), user.UnitID, recordID, time.Now())
	if err != nil {
		h.failDomain(w, r, err, "payroll_complete_failed", "failed to complete payroll record")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "payroll.record.complete", "payroll_record", recordID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, record); err != nil {
		slog.Warn("audit payroll.record.complete failed", "err", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	record, err := h.Service.GetRecord(r.Context(), user.UnitID, chi.URLParam(r, "recordID"))
	if err != nil {
		h.failDomain(w, r, err, "payroll_get_failed", "failed to load payroll record")
		return
	}
	if failed := h.requireOwnRecord(w, r, user, record.EmployeeID); failed {
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
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
	result, err := h.Service.ListRecords(r.Context(), user.UnitID, employeeID, r.URL.Query().Get("period"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_list_failed", "failed to list payroll records", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"records": result.Records, "total": result.Total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	recordID := chi.URLParam(r, "recordID")
	record, err := h.Service.GetRecord(r.Context(), user.UnitID, recordID)
	if err != nil {
		h.failDomain(w, r, err, "payroll_get_failed", "failed to load payroll record")
		return
	}
	if failed := h.requireOwnRecord(w, r, user, record.EmployeeID); failed {
		return
	}

	data, err := h.Service.PayslipData(r.Context(), user.UnitID, recordID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to load payslip data", middleware.GetRequestID(r.Context()))
		return
	}
	pdf, err := payroll.RenderPayslip(data)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to render payslip", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "payslip-"+data.Period+".pdf"))
	_, _ = w.Write(pdf)
}

// requireOwnRecord stops employees from reading other employees' payroll.
func (h *Handler) requireOwnRecord(w http.ResponseWriter, r *http.Request, user auth.UserContext, recordEmployeeID string) bool {
	if user.Role != auth.RoleEmployee {
		return false
	}
	own, err := h.Core.EmployeeIDByUserID(r.Context(), user.UnitID, user.UserID)
	if err != nil || own != recordEmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this payroll record", middleware.GetRequestID(r.Context()))
		return true
	}
	return false
}

func (h *Handler) resolveEmployee(w http.ResponseWriter, r *http.Request, user auth.UserContext) (string, bool) {
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
		slog.Warn("payroll notification failed", "employeeId", employeeID, "err", err)
	}
}

func (h *Handler) failDomain(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	var invalid *payroll.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		api.Fail(w, http.StatusConflict, "invalid_transition", invalid.Error(), requestID)
	case errors.Is(err, payroll.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll record not found", requestID)
	case errors.Is(err, payroll.ErrNegativeNetPay):
		api.Fail(w, http.StatusUnprocessableEntity, "negative_net_pay", "deductions exceed gross pay", requestID)
	case errors.Is(err, payroll.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate_period", "a payroll record for this employee and period already exists", requestID)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_period", "period must be in YYYY-MM format", requestID)
	case errors.Is(err, payroll.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to act on this payroll record", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
