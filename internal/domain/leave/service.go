package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"leaveportal/internal/domain/auth"
)

var (
	ErrRequestNotFound = errors.New("leave request not found")
	ErrAlreadyDecided  = errors.New("leave request already decided")
	ErrInvalidDecision = errors.New("decision must be Approved or Rejected")
)

// WarnCasualExhausted is attached to a submission whose casual quota is
// already used up. The request is still created.
const WarnCasualExhausted = "casual leave quota exhausted; request may be processed as LWP"

type Service struct {
	Store StoreAPI
	// Strict turns the silent no-op on unknown ids and the overwrite of
	// already decided requests into ErrRequestNotFound and ErrAlreadyDecided.
	Strict bool
	Now    func() time.Time
}

type Option func(*Service)

func WithStrictDecisions(strict bool) Option {
	return func(s *Service) { s.Strict = strict }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.Now = now }
}

func NewService(store StoreAPI, opts ...Option) *Service {
	s := &Service{Store: store, Now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() string {
	return Today(s.Now())
}

type SubmitResult struct {
	Request  LeaveRequest
	Warnings []string
}

// Submit records a new Pending request for user. The draft is trusted as is;
// validation belongs to the caller.
func (s *Service) Submit(ctx context.Context, user auth.UserContext, draft Draft) (SubmitResult, error) {
	var result SubmitResult

	if draft.Type == TypeCasual {
		existing, err := s.Store.LoadLeaveRequests(ctx)
		if err != nil {
			return result, err
		}
		if ComputeBalance(existing, user.Code).Casual.Remaining <= 0 {
			result.Warnings = append(result.Warnings, WarnCasualExhausted)
		}
	}

	req := LeaveRequest{
		ID:           uuid.NewString(),
		EmployeeID:   user.UserID,
		EmployeeName: user.Name,
		EmployeeCode: user.Code,
		Type:         draft.Type,
		StartDate:    draft.StartDate,
		EndDate:      draft.EndDate,
		Duration:     draft.Duration,
		Description:  draft.Description,
		Attachment:   draft.Attachment,
		Status:       StatusPending,
		AppliedDate:  s.today(),
	}
	if _, err := s.Store.AppendLeaveRequest(ctx, req); err != nil {
		return result, fmt.Errorf("append leave request: %w", err)
	}
	result.Request = req
	return result, nil
}

type DecisionResult struct {
	// Found is false when no request had the id; nothing was written.
	Found bool
	// Previous is the status before this decision.
	Previous Status
	// Overwrote is true when the request had already left Pending.
	Overwrote bool
	Request   LeaveRequest
}

// Decide approves or rejects a request on behalf of actor. There is no
// Pending precondition unless the service is strict: deciding again replaces
// the earlier actor, reason and date.
func (s *Service) Decide(ctx context.Context, requestID string, decision Status, actor auth.UserContext, reason string) (DecisionResult, error) {
	var result DecisionResult
	if decision != StatusApproved && decision != StatusRejected {
		return result, ErrInvalidDecision
	}

	var guard func(LeaveRequest) error
	if s.Strict {
		guard = func(prev LeaveRequest) error {
			if prev.Status != StatusPending {
				return ErrAlreadyDecided
			}
			return nil
		}
	}

	change, err := s.Store.SetLeaveStatusIf(ctx, requestID, decision, actor.ActorLabel(), reason, guard)
	result.Found = change.Found
	if change.Found {
		result.Previous = change.Previous.Status
		result.Overwrote = change.Previous.Status != StatusPending
	}
	if errors.Is(err, ErrAlreadyDecided) {
		return result, err
	}
	if err != nil {
		return result, fmt.Errorf("set leave status: %w", err)
	}
	if !change.Found {
		if s.Strict {
			return result, ErrRequestNotFound
		}
		return result, nil
	}
	result.Request, _ = find(change.Requests, requestID)
	return result, nil
}

func (s *Service) Get(ctx context.Context, requestID string) (LeaveRequest, error) {
	requests, err := s.Store.LoadLeaveRequests(ctx)
	if err != nil {
		return LeaveRequest{}, err
	}
	req, ok := find(requests, requestID)
	if !ok {
		return LeaveRequest{}, ErrRequestNotFound
	}
	return req, nil
}

// ListForEmployee returns every request submitted under code, in storage
// order.
func (s *Service) ListForEmployee(ctx context.Context, code string) ([]LeaveRequest, error) {
	requests, err := s.Store.LoadLeaveRequests(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LeaveRequest, 0)
	for _, req := range requests {
		if req.EmployeeCode == code {
			out = append(out, req)
		}
	}
	return out, nil
}

// ListPending returns the review queue. search matches employee name, code or
// leave type, case-insensitively.
func (s *Service) ListPending(ctx context.Context, search string) ([]LeaveRequest, error) {
	return s.Search(ctx, StatusPending, search)
}

// Search filters by status and search term in storage order. An empty status
// matches every request.
func (s *Service) Search(ctx context.Context, status Status, search string) ([]LeaveRequest, error) {
	requests, err := s.Store.LoadLeaveRequests(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]LeaveRequest, 0)
	for _, req := range requests {
		if status != "" && req.Status != status {
			continue
		}
		if !matchesSearch(req, needle) {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func matchesSearch(req LeaveRequest, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(req.EmployeeName), needle) ||
		strings.Contains(strings.ToLower(req.EmployeeCode), needle) ||
		strings.Contains(strings.ToLower(string(req.Type)), needle)
}

func (s *Service) ListAll(ctx context.Context) ([]LeaveRequest, error) {
	return s.Store.LoadLeaveRequests(ctx)
}

func find(requests []LeaveRequest, id string) (LeaveRequest, bool) {
	for _, req := range requests {
		if req.ID == id {
			return req, true
		}
	}
	return LeaveRequest{}, false
}
