package notifications

import (
	"context"
	"time"
)

type StoreAPI interface {
	Append(ctx context.Context, n Notification) error
	ListFor(ctx context.Context, userCode string) ([]Notification, error)
	MarkRead(ctx context.Context, userCode, id string, at time.Time) (bool, error)
}
