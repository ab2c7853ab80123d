package corehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leaveportal/internal/domain/audit"
	"leaveportal/internal/domain/auth"
	"leaveportal/internal/domain/core"
	"leaveportal/internal/transport/http/api"
	"leaveportal/internal/transport/http/middleware"
	"leaveportal/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Audit   *audit.Service
}

func NewHandler(service *core.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Post("/", h.handleCreateUser)
	})
	r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/departments", h.handleListDepartments)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Search(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		zap.L().Error("list users failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 0, 500)
	api.Success(w, map[string]any{
		"items": shared.Page(users, page),
		"total": len(users),
	}, middleware.GetRequestID(r.Context()))
}

type userPayload struct {
	Code             string `json:"code" validate:"required,max=16"`
	Name             string `json:"name" validate:"required,max=120"`
	Role             string `json:"role" validate:"required,oneof=Admin HR Employee"`
	Department       string `json:"department" validate:"max=80"`
	Email            string `json:"email" validate:"omitempty,email"`
	ReportingManager string `json:"reportingManager"`
	HRName           string `json:"hrName"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload userPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	role, _ := auth.ParseRole(payload.Role)
	user, err := h.Service.Add(r.Context(), core.User{
		Code:             strings.ToUpper(strings.TrimSpace(payload.Code)),
		Name:             payload.Name,
		Role:             role,
		Department:       strings.TrimSpace(payload.Department),
		Email:            strings.TrimSpace(payload.Email),
		ReportingManager: payload.ReportingManager,
		HRName:           payload.HRName,
	})
	if err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateCode):
			api.Fail(w, http.StatusConflict, "duplicate_code", "employee code already exists", middleware.GetRequestID(r.Context()))
		case errors.Is(err, core.ErrInvalidUser):
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid user", middleware.GetRequestID(r.Context()))
		default:
			zap.L().Error("create user failed", zap.Error(err))
			api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		}
		return
	}
	actor, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:      actor.ActorLabel(),
		Action:     audit.ActionUserCreate,
		EntityType: audit.EntityUser,
		EntityID:   user.Code,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		After:      user,
	}); err != nil {
		zap.L().Warn("audit record failed", zap.String("action", audit.ActionUserCreate), zap.Error(err))
	}
	api.Created(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.Departments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_list_failed", "failed to list departments", middleware.GetRequestID(r.Context()))
		return
	}
	if departments == nil {
		departments = []string{}
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}
