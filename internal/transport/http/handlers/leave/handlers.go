package leavehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"opsportal/internal/domain/audit"
	"opsportal/internal/domain/auth"
	"opsportal/internal/domain/core"
	"opsportal/internal/domain/leave"
	"opsportal/internal/domain/notifications"
	"opsportal/internal/transport/http/api"
	"opsportal/internal/transport/http/middleware"
	"opsportal/internal/transport/http/shared"
)

const (
	maxDocumentBytes  = 2 * 1024 * 1024
	maxMultipartBytes = 8 * 1024 * 1024
)

type Handler struct {
	Service *leave.Service
	Core    *core.Store
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *leave.Service, coreStore *core.Store, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Core: coreStore, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests/{requestID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests/{requestID}/cancel", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests/{requestID}/documents", h.handleUploadDocument)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests/{requestID}/documents/{documentID}/download", h.handleDownloadDocument)
	})
}

type createPayload struct {
	EmployeeID string `json:"employeeId"`
	Type       string `json:"type"`
	Unit       string `json:"unit"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Reason     string `json:"reason"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID, failed := h.resolveEmployee(w, r, user, payload.EmployeeID)
	if failed {
		return
	}

	input := leave.RequestInput{
		Type:      payload.Type,
		Unit:      payload.Unit,
		StartDate: payload.StartDate,
		EndDate:   payload.EndDate,
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
	}
	req, err := h.Service.CreateRequest(r.Context(), user.UnitID, employeeID, input, payload.Reason, time.Now())
	if err != nil {
		h.failDomain(w, r, err, "leave_create_failed", "failed to create leave request")
		return
	}

	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "leave.request.create", "leave_request", req.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.create failed", "err", err)
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
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave requests", middleware.GetRequestID(r.Context()))
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
		h.failDomain(w, r, err, "leave_get_failed", "failed to load leave request")
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
		h.failDomain(w, r, err, "leave_approve_failed", "failed to approve leave request")
		return
	}

	h.notifyEmployee(r, user.UnitID, req.EmployeeID, notifications.TypeLeaveApproved,
		"Leave request approved",
		fmt.Sprintf("Your leave request starting %s was approved.", req.StartDate.Format("2006-01-02")))
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "leave.request.approve", "leave_request", requestID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.approve failed", "err", err)
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
		h.failDomain(w, r, err, "leave_reject_failed", "failed to reject leave request")
		return
	}

	h.notifyEmployee(r, user.UnitID, req.EmployeeID, notifications.TypeLeaveRejected,
		"Leave request rejected",
		fmt.Sprintf("Your leave request starting %s was rejected.", req.StartDate.Format("2006-01-02")))
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "leave.request.reject", "leave_request", requestID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.reject failed", "err", err)
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
		h.failDomain(w, r, err, "leave_cancel_failed", "failed to cancel leave request")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "leave.request.cancel", "leave_request", requestID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit leave.request.cancel failed", "err", err)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_multipart", "invalid multipart payload", middleware.GetRequestID(r.Context()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "missing_file", "file field is required", middleware.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	if header.Size > maxDocumentBytes {
		api.Fail(w, http.StatusRequestEntityTooLarge, "file_too_large", "document exceeds the 2 MB limit", middleware.GetRequestID(r.Context()))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes+1))
	if err != nil || int64(len(data)) > maxDocumentBytes {
		api.Fail(w, http.StatusRequestEntityTooLarge, "file_too_large", "document exceeds the 2 MB limit", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	if _, err := h.Service.GetRequest(r.Context(), user.UnitID, requestID); err != nil {
		h.failDomain(w, r, err, "leave_get_failed", "failed to load leave request")
		return
	}

	upload := leave.DocumentUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		FileSize:    int64(len(data)),
		Data:        data,
	}
	doc, err := h.Service.CreateDocument(r.Context(), user.UnitID, requestID, upload, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "document_upload_failed", "failed to store document", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, doc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	doc, data, err := h.Service.DocumentData(r.Context(), user.UnitID, chi.URLParam(r, "requestID"), chi.URLParam(r, "documentID"))
	if err != nil {
		h.failDomain(w, r, err, "document_download_failed", "failed to load document")
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	_, _ = w.Write(data)
}

// resolveEmployee maps the caller to an employee record. Employees always act
// as themselves; admins may act for a named employee.
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
		slog.Warn("leave notification failed", "employeeId", employeeID, "err", err)
	}
}

func (h *Handler) failDomain(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	var verr *leave.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusUnprocessableEntity
		if verr.Code == leave.CodeOverlap {
			status = http.StatusConflict
		}
		api.Fail(w, status, verr.Code, verr.Message, requestID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "leave request is not pending", requestID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to act on this leave request", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
