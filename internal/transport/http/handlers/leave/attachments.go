package leavehandler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"leaveportal/internal/platform/blob"
	"leaveportal/internal/transport/http/api"
	"leaveportal/internal/transport/http/middleware"
)

var allowedAttachmentExt = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

func (h *Handler) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxAttachmentBytes+64*1024)
	if err := r.ParseMultipartForm(h.MaxAttachmentBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", middleware.GetRequestID(r.Context()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "file is required", middleware.GetRequestID(r.Context()))
		return
	}
	defer file.Close()

	if header.Size > h.MaxAttachmentBytes {
		api.Fail(w, http.StatusRequestEntityTooLarge, "attachment_too_large", "attachment exceeds size limit", middleware.GetRequestID(r.Context()))
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedAttachmentExt[ext] {
		api.Fail(w, http.StatusBadRequest, "invalid_attachment", "attachment must be pdf, png or jpg", middleware.GetRequestID(r.Context()))
		return
	}

	ref := uuid.NewString() + ext
	contentType := mime.TypeByExtension(ext)
	if err := h.Blobs.Put(r.Context(), ref, file, header.Size, contentType); err != nil {
		zap.L().Error("attachment upload failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "attachment_upload_failed", "failed to store attachment", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]any{
		"ref":      ref,
		"fileName": filepath.Base(header.Filename),
		"size":     header.Size,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	rc, err := h.Blobs.Open(r.Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, blob.ErrNotFound), errors.Is(err, blob.ErrInvalidRef):
			api.Fail(w, http.StatusNotFound, "not_found", "attachment not found", middleware.GetRequestID(r.Context()))
		default:
			zap.L().Error("attachment open failed", zap.String("ref", ref), zap.Error(err))
			api.Fail(w, http.StatusInternalServerError, "attachment_download_failed", "failed to load attachment", middleware.GetRequestID(r.Context()))
		}
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(ref))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+ref+"\"")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		zap.L().Warn("attachment download write failed", zap.String("ref", ref), zap.Error(err))
	}
}
