package leave

import "context"

// StatusChange reports the outcome of a guarded status update. Previous holds
// the request as it was before the update and is zero when Found is false.
type StatusChange struct {
	Found    bool
	Previous LeaveRequest
	Requests []LeaveRequest
}

type StoreAPI interface {
	LoadLeaveRequests(ctx context.Context) ([]LeaveRequest, error)
	AppendLeaveRequest(ctx context.Context, req LeaveRequest) ([]LeaveRequest, error)
	// SetLeaveStatusIf runs guard against the stored request and writes only
	// when it returns nil. The check and the write happen under one lock.
	// Nothing is written and guard is not called when no request has the id.
	SetLeaveStatusIf(ctx context.Context, id string, status Status, actorLabel, reason string, guard func(prev LeaveRequest) error) (StatusChange, error)
}
