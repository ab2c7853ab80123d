package reportshandler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leaveportal/internal/domain/auth"
	"leaveportal/internal/domain/core"
	"leaveportal/internal/domain/leave"
	"leaveportal/internal/transport/http/api"
	"leaveportal/internal/transport/http/middleware"
)

type Handler struct {
	Leave *leave.Service
	Users *core.Service
}

func NewHandler(leaveSvc *leave.Service, users *core.Service) *Handler {
	return &Handler{Leave: leaveSvc, Users: users}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead))
		r.Get("/summary", h.handleSummary)
		r.Get("/breakdown", h.handleBreakdown)
		r.Get("/leaves.csv", h.handleExportCSV)
		r.Get("/leaves.xlsx", h.handleExportXLSX)
		r.Get("/leaves.pdf", h.handleExportPDF)
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		h.fail(w, r, "report_failed", err)
		return
	}
	summary, err := h.Leave.AdminSummary(r.Context(), users)
	if err != nil {
		h.fail(w, r, "report_failed", err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.Leave.Breakdown(r.Context())
	if err != nil {
		h.fail(w, r, "report_failed", err)
		return
	}
	api.Success(w, breakdown, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Leave.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, "export_failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", attachmentName("csv"))
	if err := leave.WriteCSV(w, requests); err != nil {
		zap.L().Warn("csv export write failed", zap.Error(err))
	}
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Leave.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, "export_failed", err)
		return
	}
	buf, err := leave.XLSX(requests)
	if err != nil {
		h.fail(w, r, "export_failed", err)
		return
	}
	h.writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", buf)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Leave.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, "export_failed", err)
		return
	}
	var buf bytes.Buffer
	if err := leave.WritePDF(&buf, "Leave report", requests); err != nil {
		h.fail(w, r, "export_failed", err)
		return
	}
	h.writeFile(w, "application/pdf", "pdf", &buf)
}

func (h *Handler) writeFile(w http.ResponseWriter, contentType, ext string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachmentName(ext))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		zap.L().Warn("export write failed", zap.String("format", ext), zap.Error(err))
	}
}

func attachmentName(ext string) string {
	return fmt.Sprintf("attachment; filename=leave-requests-%s.%s", time.Now().Format("20060102"), ext)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string, err error) {
	zap.L().Error("report failed", zap.String("code", code), zap.Error(err))
	api.Fail(w, http.StatusInternalServerError, code, "failed to build report", middleware.GetRequestID(r.Context()))
}
