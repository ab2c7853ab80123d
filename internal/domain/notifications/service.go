// Package notifications keeps a per-employee inbox of leave events and
// optionally mails each one.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leaveportal/internal/domain/core"
	"leaveportal/internal/domain/leave"
	"leaveportal/internal/platform/jobs"
)

var ErrNotFound = errors.New("notification not found")

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Dispatcher runs mail delivery off the request path.
type Dispatcher interface {
	Enqueue(jobType string, run func(context.Context) error) bool
}

// Directory resolves an employee code to the address mail goes to.
type Directory interface {
	FindByCode(ctx context.Context, code string) (core.User, error)
}

type Service struct {
	store      StoreAPI
	Mailer     Mailer
	Dispatcher Dispatcher
	Directory  Directory
	From       string
	Now        func() time.Time
}

func New(store StoreAPI, mailer Mailer, dispatcher Dispatcher, directory Directory, from string) *Service {
	return &Service{
		store:      store,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Directory:  directory,
		From:       from,
		Now:        time.Now,
	}
}

// Create stores the notification and hands mail delivery to the dispatcher.
// Mail failures are logged and never returned.
func (s *Service) Create(ctx context.Context, userCode, ntype, title, body string) (Notification, error) {
	n := Notification{
		ID:        uuid.NewString(),
		UserCode:  userCode,
		Type:      ntype,
		Title:     title,
		Body:      body,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.store.Append(ctx, n); err != nil {
		return Notification{}, err
	}
	s.mail(ctx, n)
	return n, nil
}

func (s *Service) mail(ctx context.Context, n Notification) {
	if s.Mailer == nil || s.Directory == nil {
		return
	}
	user, err := s.Directory.FindByCode(ctx, n.UserCode)
	if err != nil {
		zap.L().Warn("notification email lookup failed", zap.String("userCode", n.UserCode), zap.Error(err))
		return
	}
	to := strings.TrimSpace(user.Email)
	if to == "" {
		return
	}
	send := func(ctx context.Context) error {
		return s.Mailer.Send(ctx, s.From, to, n.Title, n.Body)
	}
	if s.Dispatcher == nil {
		if err := send(ctx); err != nil {
			zap.L().Warn("notification email send failed", zap.String("userCode", n.UserCode), zap.Error(err))
		}
		return
	}
	if !s.Dispatcher.Enqueue(jobs.JobNotificationEmail, send) {
		zap.L().Warn("notification email dropped", zap.String("userCode", n.UserCode))
	}
}

// LeaveSubmitted confirms a new request to its owner.
func (s *Service) LeaveSubmitted(ctx context.Context, req leave.LeaveRequest) error {
	title := fmt.Sprintf("%s leave request submitted", req.Type)
	body := fmt.Sprintf("Your %s leave from %s to %s (%s) is pending review.", req.Type, req.StartDate, req.EndDate, req.Duration)
	_, err := s.Create(ctx, req.EmployeeCode, TypeLeaveSubmitted, title, body)
	return err
}

// LeaveDecided tells the owner about an approval or rejection.
func (s *Service) LeaveDecided(ctx context.Context, req leave.LeaveRequest) error {
	ntype := TypeLeaveApproved
	if req.Status == leave.StatusRejected {
		ntype = TypeLeaveRejected
	}
	title := fmt.Sprintf("%s leave request %s", req.Type, strings.ToLower(string(req.Status)))
	body := fmt.Sprintf("Your %s leave from %s to %s was %s by %s.", req.Type, req.StartDate, req.EndDate, strings.ToLower(string(req.Status)), req.ActionBy)
	if req.ReasonForAction != "" {
		body += " Reason: " + req.ReasonForAction
	}
	_, err := s.Create(ctx, req.EmployeeCode, ntype, title, body)
	return err
}

// List returns the inbox newest first plus its size and unread count.
func (s *Service) List(ctx context.Context, userCode string, limit, offset int) ([]Notification, int, int, error) {
	all, err := s.store.ListFor(ctx, userCode)
	if err != nil {
		return nil, 0, 0, err
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	unread := 0
	for _, n := range all {
		if n.ReadAt == nil {
			unread++
		}
	}
	total := len(all)
	if offset >= total {
		return []Notification{}, total, unread, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, unread, nil
}

func (s *Service) MarkRead(ctx context.Context, userCode, id string) error {
	found, err := s.store.MarkRead(ctx, userCode, id, s.Now().UTC())
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
