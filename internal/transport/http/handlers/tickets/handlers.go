package ticketshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsportal/internal/domain/audit"
	"opsportal/internal/domain/auth"
	"opsportal/internal/domain/notifications"
	"opsportal/internal/domain/tickets"
	"opsportal/internal/transport/http/api"
	"opsportal/internal/transport/http/middleware"
	"opsportal/internal/transport/http/shared"
)

type Handler struct {
	Service *tickets.Service
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *tickets.Service, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTicketsRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermTicketsRead)).Get("/{ticketID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermTicketsWrite)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermTicketsManage)).Post("/{ticketID}/assign", h.handleAssign)
		r.With(middleware.RequirePermission(auth.PermTicketsManage)).Post("/{ticketID}/status", h.handleMove)
		r.With(middleware.RequirePermission(auth.PermTicketsRead)).Get("/{ticketID}/comments", h.handleComments)
		r.With(middleware.RequirePermission(auth.PermTicketsWrite)).Post("/{ticketID}/comments", h.handleAddComment)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Subject  string `json:"subject"`
		Body     string `json:"body"`
		Priority string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	ticket, err := h.Service.Create(r.Context(), user.UnitID, user.UserID, payload.Subject, payload.Body, payload.Priority)
	if err != nil {
		h.failDomain(w, r, err, "ticket_create_failed", "failed to create ticket")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "ticket.create", "ticket", ticket.ID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, ticket); err != nil {
		slog.Warn("audit ticket.create failed", "err", err)
	}
	api.Created(w, ticket, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	// Customers only ever see their own tickets.
	createdBy := r.URL.Query().Get("createdBy")
	if user.Role == auth.RoleCustomer {
		createdBy = user.UserID
	}

	page := shared.ParsePagination(r, 20, 100)
	result, total, err := h.Service.List(r.Context(), user.UnitID, r.URL.Query().Get("status"), createdBy, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "ticket_list_failed", "failed to list tickets", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"tickets": result, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	ticket, err := h.Service.Get(r.Context(), user.UnitID, chi.URLParam(r, "ticketID"))
	if err != nil {
		h.failDomain(w, r, err, "ticket_get_failed", "failed to load ticket")
		return
	}
	if user.Role == auth.RoleCustomer && ticket.CreatedBy != user.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this ticket", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, ticket, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "userId is required", middleware.GetRequestID(r.Context()))
		return
	}

	ticketID := chi.URLParam(r, "ticketID")
	if err := h.Service.Assign(r.Context(), user.UnitID, ticketID, payload.UserID); err != nil {
		h.failDomain(w, r, err, "ticket_assign_failed", "failed to assign ticket")
		return
	}
	api.Success(w, map[string]string{"id": ticketID, "assignedTo": payload.UserID}, middleware.GetRequestID(r.Context()))
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

	ticketID := chi.URLParam(r, "ticketID")
	ticket, err := h.Service.Move(r.Context(), user.UnitID, ticketID, payload.Status)
	if err != nil {
		h.failDomain(w, r, err, "ticket_move_failed", "failed to update ticket status")
		return
	}
	if err := h.Audit.Record(r.Context(), user.UnitID, user.UserID, "ticket.status", "ticket", ticketID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), nil, ticket); err != nil {
		slog.Warn("audit ticket.status failed", "err", err)
	}
	api.Success(w, ticket, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleComments(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	comments, err := h.Service.Comments(r.Context(), user.UnitID, chi.URLParam(r, "ticketID"))
	if err != nil {
		h.failDomain(w, r, err, "ticket_comments_failed", "failed to list ticket comments")
		return
	}
	api.Success(w, comments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	ticketID := chi.URLParam(r, "ticketID")
	comment, err := h.Service.AddComment(r.Context(), user.UnitID, ticketID, user.UserID, payload.Body)
	if err != nil {
		h.failDomain(w, r, err, "ticket_comment_failed", "failed to add ticket comment")
		return
	}

	// Tell the ticket owner someone replied, unless they replied themselves.
	if ticket, err := h.Service.Get(r.Context(), user.UnitID, ticketID); err == nil && ticket.CreatedBy != user.UserID {
		if err := h.Notify.Create(r.Context(), user.UnitID, ticket.CreatedBy, notifications.TypeTicketReply,
			"New reply on your ticket", "A reply was posted on: "+ticket.Subject); err != nil {
			slog.Warn("ticket reply notification failed", "err", err)
		}
	}
	api.Created(w, comment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failDomain(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	var invalid *tickets.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		api.Fail(w, http.StatusConflict, "invalid_transition", invalid.Error(), requestID)
	case errors.Is(err, tickets.ErrMissingSubject), errors.Is(err, tickets.ErrMissingBody), errors.Is(err, tickets.ErrUnknownPriority):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_request", err.Error(), requestID)
	case errors.Is(err, tickets.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "ticket not found", requestID)
	case errors.Is(err, tickets.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to act on this ticket", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
