package leavehandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leaveportal/internal/domain/audit"
	"leaveportal/internal/domain/auth"
	"leaveportal/internal/domain/leave"
	"leaveportal/internal/domain/notifications"
	"leaveportal/internal/platform/blob"
	"leaveportal/internal/platform/metrics"
	"leaveportal/internal/transport/http/api"
	"leaveportal/internal/transport/http/middleware"
	"leaveportal/internal/transport/http/shared"
)

type Handler struct {
	Service       *leave.Service
	Blobs         blob.Store
	Idempotency   *middleware.IdempotencyStore
	Metrics       *metrics.Collector
	Audit         *audit.Service
	Notifications *notifications.Service
	// MaxAttachmentBytes caps one uploaded attachment.
	MaxAttachmentBytes int64
}

func NewHandler(service *leave.Service, blobs blob.Store, idem *middleware.IdempotencyStore, collector *metrics.Collector, auditSvc *audit.Service, notifier *notifications.Service, maxAttachmentBytes int64) *Handler {
	return &Handler{
		Service:            service,
		Blobs:              blobs,
		Idempotency:        idem,
		Metrics:            collector,
		Audit:              auditSvc,
		Notifications:      notifier,
		MaxAttachmentBytes: maxAttachmentBytes,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests/mine", h.handleListMine)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Get("/requests", h.handleListPending)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/balance", h.handleBalance)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/attachments", h.handleUploadAttachment)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/attachments/{ref}", h.handleDownloadAttachment)
	})
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.ListForEmployee(r.Context(), user.Code)
	if err != nil {
		h.failStore(w, r, "leave_list_failed", err)
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

const allStatuses = "All"

var listStatuses = []string{
	string(leave.StatusPending), string(leave.StatusApproved), string(leave.StatusRejected),
	string(leave.StatusCancelled), allStatuses,
}

// handleListPending serves the review queue. ?status widens it to another
// status or to all requests; ?search applies either way.
func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	v := shared.NewValidator()
	matched := v.Enum("status", query.Get("status"), listStatuses, "must be one of "+strings.Join(listStatuses, ", "))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	status := leave.Status(matched)
	switch matched {
	case "":
		status = leave.StatusPending
	case allStatuses:
		status = ""
	}

	requests, err := h.Service.Search(r.Context(), status, query.Get("search"))
	if err != nil {
		h.failStore(w, r, "leave_list_failed", err)
		return
	}
	page := shared.ParsePagination(r, 0, 500)
	api.Success(w, map[string]any{
		"items": shared.Page(requests, page),
		"total": len(requests),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	requestID := chi.URLParam(r, "requestID")
	req, err := h.Service.Get(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, leave.ErrRequestNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
			return
		}
		h.failStore(w, r, "leave_get_failed", err)
		return
	}
	if req.EmployeeCode != user.Code && !auth.CanReview(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type leaveRequestPayload struct {
	Type        string `json:"type" validate:"required,oneof=Casual Sick Study LWP Earned"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	Duration    string `json:"duration" validate:"required,oneof='Full Day' 'Half Day'"`
	Description string `json:"description" validate:"required,min=5,max=1000"`
	Attachment  string `json:"attachment" validate:"max=200"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
		return
	}
	var payload leaveRequestPayload
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Description = strings.TrimSpace(payload.Description)

	v := shared.NewValidator()
	v.Struct(payload)
	var start, end time.Time
	var okStart, okEnd bool
	if payload.StartDate != "" {
		start, okStart = v.Date("startDate", payload.StartDate)
	}
	if payload.EndDate != "" {
		end, okEnd = v.Date("endDate", payload.EndDate)
	}
	if okStart && okEnd {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), user.Code, "leave.submit", idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			zap.L().Warn("idempotency check failed", zap.Error(err))
		}
		if found {
			api.Created(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
			return
		}
	}

	result, err := h.Service.Submit(r.Context(), user, leave.Draft{
		Type:        leave.Type(payload.Type),
		StartDate:   shared.CalendarDate(start),
		EndDate:     shared.CalendarDate(end),
		Duration:    leave.Duration(payload.Duration),
		Description: payload.Description,
		Attachment:  payload.Attachment,
	})
	if err != nil {
		h.failStore(w, r, "leave_request_failed", err)
		return
	}
	h.Metrics.LeaveSubmitted()
	h.record(r, user.ActorLabel(), audit.ActionLeaveSubmit, result.Request.ID, nil, result.Request)
	if h.Notifications != nil {
		if err := h.Notifications.LeaveSubmitted(r.Context(), result.Request); err != nil {
			zap.L().Warn("submit notification failed", zap.String("requestId", result.Request.ID), zap.Error(err))
		}
	}

	response := map[string]any{
		"request":  result.Request,
		"warnings": nonNil(result.Warnings),
	}
	if idempotencyKey != "" {
		if raw, err := json.Marshal(response); err == nil {
			if err := h.Idempotency.Save(r.Context(), user.Code, "leave.submit", idempotencyKey, requestHash, raw); err != nil {
				zap.L().Warn("idempotency save failed", zap.Error(err))
			}
		}
	}
	zap.L().Info("leave request submitted",
		zap.String("requestId", result.Request.ID),
		zap.String("employeeCode", user.Code),
		zap.String("type", string(result.Request.Type)),
		zap.Strings("warnings", result.Warnings),
	)
	api.Created(w, response, middleware.GetRequestID(r.Context()))
}

type decisionPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusApproved)
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decision leave.Status) {
	user, _ := middleware.GetUser(r.Context())

	var payload decisionPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}
	payload.Reason = strings.TrimSpace(payload.Reason)
	if decision == leave.StatusRejected {
		v := shared.NewValidator()
		v.Required("reason", payload.Reason, "is required when rejecting")
		if v.Reject(w, middleware.GetRequestID(r.Context())) {
			return
		}
	}

	requestID := chi.URLParam(r, "requestID")
	result, err := h.Service.Decide(r.Context(), requestID, decision, user, payload.Reason)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrRequestNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrAlreadyDecided):
			api.Fail(w, http.StatusConflict, "already_decided", "leave request already decided", middleware.GetRequestID(r.Context()))
		default:
			h.failStore(w, r, "leave_decision_failed", err)
		}
		return
	}
	h.Metrics.LeaveDecided(result.Found, result.Overwrote)
	if result.Found {
		action := audit.ActionLeaveApprove
		if decision == leave.StatusRejected {
			action = audit.ActionLeaveReject
		}
		h.record(r, user.ActorLabel(), action, requestID, map[string]leave.Status{"status": result.Previous}, result.Request)
		if h.Notifications != nil {
			if err := h.Notifications.LeaveDecided(r.Context(), result.Request); err != nil {
				zap.L().Warn("decision notification failed", zap.String("requestId", requestID), zap.Error(err))
			}
		}
	}

	if result.Overwrote {
		zap.L().Warn("leave decision overwrote an earlier decision",
			zap.String("requestId", requestID),
			zap.String("previous", string(result.Previous)),
			zap.String("decision", string(decision)),
			zap.String("actor", user.ActorLabel()),
		)
	}

	data := map[string]any{
		"found":     result.Found,
		"previous":  result.Previous,
		"overwrote": result.Overwrote,
	}
	if result.Found {
		data["request"] = result.Request
	}
	api.Success(w, data, middleware.GetRequestID(r.Context()))
}

// handleBalance returns the caller's balance; approvers may pass ?code= for
// another employee and ?asOf= to stamp the response.
func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	code := user.Code
	if other := strings.TrimSpace(r.URL.Query().Get("code")); other != "" && !strings.EqualFold(other, user.Code) {
		if !auth.CanReview(user.Role) {
			api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
			return
		}
		code = strings.ToUpper(other)
	}

	asOf := time.Now()
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		v := shared.NewValidator()
		parsed, ok := v.Date("asOf", raw)
		if !ok {
			v.Reject(w, middleware.GetRequestID(r.Context()))
			return
		}
		asOf = parsed
	}

	balance, err := h.Service.BalanceFor(r.Context(), code, asOf)
	if err != nil {
		h.failStore(w, r, "leave_balance_failed", err)
		return
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	summary, err := h.Service.EmployeeSummary(r.Context(), user.Code)
	if err != nil {
		h.failStore(w, r, "leave_summary_failed", err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, actor, action, entityID string, before, after any) {
	err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: audit.EntityLeaveRequest,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	})
	if err != nil {
		zap.L().Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}

func (h *Handler) failStore(w http.ResponseWriter, r *http.Request, code string, err error) {
	zap.L().Error("leave store operation failed",
		zap.String("code", code),
		zap.String("requestId", middleware.GetRequestID(r.Context())),
		zap.Error(err),
	)
	api.Fail(w, http.StatusInternalServerError, code, "leave store unavailable", middleware.GetRequestID(r.Context()))
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
