// Package blob stores leave attachments by opaque reference.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"leaveportal/internal/platform/config"
)

var (
	ErrNotFound   = errors.New("attachment not found")
	ErrInvalidRef = errors.New("invalid attachment reference")
)

type Store interface {
	Put(ctx context.Context, ref string, r io.Reader, size int64, contentType string) error
	// Open returns ErrNotFound for unknown refs. The caller closes the reader.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.AttachmentDriver {
	case config.AttachmentFS:
		store, err := NewFS(cfg.AttachmentDir)
		if err != nil {
			return nil, err
		}
		logger.Info("attachments on filesystem", zap.String("dir", cfg.AttachmentDir))
		return store, nil
	case config.AttachmentMinio:
		store, err := NewMinio(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		logger.Info("attachments on minio", zap.String("endpoint", cfg.MinioEndpoint), zap.String("bucket", cfg.MinioBucket))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported attachment driver %q", cfg.AttachmentDriver)
	}
}
