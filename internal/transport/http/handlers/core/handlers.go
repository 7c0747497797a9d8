package corehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"opsportal/internal/domain/audit"
	"opsportal/internal/domain/auth"
	"opsportal/internal/domain/core"
	"opsportal/internal/transport/http/api"
	"opsportal/internal/transport/http/middleware"
	"opsportal/internal/transport/http/shared"
)

type Handler struct {
	Store *core.Store
	Audit *audit.Service
}

func NewHandler(store *core.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersManage)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermUsersManage)).Get("/{employeeID}", h.handleGetEmployee)
		r.With(middleware.RequirePermission(auth.PermUsersManage)).Post("/", h.handleCreateEmployee)
	})
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersManage)).Post("/", h.handleCreateUser)
		r.With(middleware.RequirePermission(auth.PermUsersManage)).Post("/{userID}/status", h.handleSetUserStatus)
	})
	r.Get("/me", h.handleMe)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		UserID         string   `json:"userId"`
		EmployeeNumber string   `json:"employeeNumber"`
		FirstName      string   `json:"firstName"`
		LastName       string   `json:"lastName"`
		Email          string   `json:"email"`
		Phone          string   `json:"phone"`
		Position       string   `json:"position"`
		BaseSalary     *float64 `json:"baseSalary"`
		StartDate      string   `json:"startDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.EmployeeNumber == "" || payload.FirstName == "" || payload.LastName == "" || payload.Email == "" {
		api.Fail(w, http.StatusUnprocessableEntity, "missing_fields", "employeeNumber, firstName, lastName and email are required", middleware.GetRequestID(r.Context()))
		return
	}

	emp := core.Employee{
		UnitID:         user.UnitID,
		UserID:         payload.UserID,
		EmployeeNumber: payload.EmployeeNumber,
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Email:          strings.ToLower(payload.Email),
		Phone:          payload.Phone,
		Position:       payload.Position,
		BaseSalary:     payload.BaseSalary,
	}
	if payload.StartDate != "" {
		start, err := shared.ParseDate(payload.StartDate)
		if err != nil {
			api.Fail(w, http.StatusUnprocessableEntity, "invalid_date", "startDate must be YYYY-MM-DD", middleware.GetRequestID(r.Context()))
			return
		}
		emp.StartDate = &start
	}

	created, err := h.Store.CreateEmployee(r.Context(), emp)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "employee.create", "employee", created.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, created); err != nil {
		slog.Warn("audit employee.create failed", "err", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 20, 100)
	employees, total, err := h.Store.ListEmployees(r.Context(), user.UnitID, r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"employees": employees, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), user.UnitID, chi.URLParam(r, "employeeID"))
	if errors.Is(err, core.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Email == "" || len(payload.Password) < 10 {
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_user", "email is required and password must be at least 10 characters", middleware.GetRequestID(r.Context()))
		return
	}
	if _, known := auth.RolePermissions[payload.Role]; !known {
		api.Fail(w, http.StatusUnprocessableEntity, "unknown_role", "role must be admin, employee or customer", middleware.GetRequestID(r.Context()))
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}
	created, err := h.Store.CreateUser(r.Context(), user.UnitID, strings.ToLower(payload.Email), hash, payload.Role)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "user.create", "user", created.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, created); err != nil {
		slog.Warn("audit user.create failed", "err", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Status != auth.UserStatusActive && payload.Status != auth.UserStatusDisabled {
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_status", "status must be active or disabled", middleware.GetRequestID(r.Context()))
		return
	}

	targetID := chi.URLParam(r, "userID")
	if targetID == user.UserID && payload.Status == auth.UserStatusDisabled {
		api.Fail(w, http.StatusConflict, "self_disable", "cannot disable your own account", middleware.GetRequestID(r.Context()))
		return
	}

	err := h.Store.SetUserStatus(r.Context(), user.UnitID, targetID, payload.Status)
	if errors.Is(err, core.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_status_failed", "failed to update user status", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "user.status", "user", targetID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, map[string]string{"status": payload.Status}); err != nil {
		slog.Warn("audit user.status failed", "err", err)
	}
	api.Success(w, map[string]string{"id": targetID, "status": payload.Status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	record, err := h.Store.GetUser(r.Context(), user.UnitID, user.UserID)
	if errors.Is(err, core.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_get_failed", "failed to load user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}
