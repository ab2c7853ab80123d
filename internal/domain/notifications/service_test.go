package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leaveportal/internal/domain/core"
	"leaveportal/internal/domain/leave"
	"leaveportal/internal/platform/kv"
)

type sentMail struct {
	from, to, subject, body string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, from, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{from, to, subject, body})
	return m.err
}

type inlineDispatcher struct {
	jobs int
}

func (d *inlineDispatcher) Enqueue(_ string, run func(context.Context) error) bool {
	d.jobs++
	_ = run(context.Background())
	return true
}

type directory map[string]core.User

func (d directory) FindByCode(_ context.Context, code string) (core.User, error) {
	u, ok := d[code]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func newService(mailer Mailer, dispatcher Dispatcher) *Service {
	dir := directory{
		"E0041": {Code: "E0041", Name: "MOHAN RAJ C", Email: "mohan@example.com"},
		"E0042": {Code: "E0042", Name: "YUVARAJ S"},
	}
	svc := New(NewStore(kv.NewMemory(), "knockturn_notifications", 0), mailer, dispatcher, dir, "hr@example.com")
	clock := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc
}

func decided(status leave.Status, reason string) leave.LeaveRequest {
	return leave.LeaveRequest{
		ID:              "r1",
		EmployeeCode:    "E0041",
		Type:            leave.TypeCasual,
		StartDate:       "2025-11-03",
		EndDate:         "2025-11-04",
		Duration:        leave.DurationFullDay,
		Status:          status,
		ActionBy:        "A0001 (SAM PARKESH)",
		ReasonForAction: reason,
	}
}

func TestLeaveDecidedStoresAndMails(t *testing.T) {
	ctx := context.Background()
	mailer := &recordingMailer{}
	dispatcher := &inlineDispatcher{}
	svc := newService(mailer, dispatcher)

	if err := svc.LeaveDecided(ctx, decided(leave.StatusRejected, "Quarter end")); err != nil {
		t.Fatalf("notify: %v", err)
	}

	items, total, unread, err := svc.List(ctx, "E0041", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || unread != 1 || items[0].Type != TypeLeaveRejected {
		t.Fatalf("unexpected inbox: total=%d unread=%d %+v", total, unread, items)
	}
	if !strings.Contains(items[0].Body, "rejected by A0001 (SAM PARKESH). Reason: Quarter end") {
		t.Fatalf("unexpected body %q", items[0].Body)
	}
	if dispatcher.jobs != 1 || len(mailer.sent) != 1 {
		t.Fatalf("expected one dispatched mail, jobs=%d sent=%d", dispatcher.jobs, len(mailer.sent))
	}
	if mailer.sent[0].to != "mohan@example.com" || mailer.sent[0].from != "hr@example.com" {
		t.Fatalf("unexpected mail %+v", mailer.sent[0])
	}
}

func TestNoMailWithoutAddress(t *testing.T) {
	ctx := context.Background()
	mailer := &recordingMailer{}
	svc := newService(mailer, nil)

	req := decided(leave.StatusApproved, "")
	req.EmployeeCode = "E0042"
	if err := svc.LeaveDecided(ctx, req); err != nil {
		t.Fatal(err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no mail, got %d", len(mailer.sent))
	}
	items, _, _, _ := svc.List(ctx, "E0042", 0, 0)
	if len(items) != 1 || items[0].Type != TypeLeaveApproved {
		t.Fatalf("notification should still be stored: %+v", items)
	}
}

func TestMailFailureIsNotReturned(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := newService(mailer, nil)
	if err := svc.LeaveSubmitted(context.Background(), decided(leave.StatusPending, "")); err != nil {
		t.Fatalf("mail failure leaked: %v", err)
	}
}

func TestMarkReadOwnOnly(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil, nil)
	n, err := svc.Create(ctx, "E0041", TypeLeaveSubmitted, "t", "b")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "E0041", TypeLeaveApproved, "t2", "b2"); err != nil {
		t.Fatal(err)
	}

	if err := svc.MarkRead(ctx, "E0042", n.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another inbox, got %v", err)
	}
	if err := svc.MarkRead(ctx, "E0041", n.ID); err != nil {
		t.Fatal(err)
	}
	items, total, unread, err := svc.List(ctx, "E0041", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || unread != 1 || items[0].Type != TypeLeaveApproved || items[1].ReadAt == nil {
		t.Fatalf("unexpected inbox after read: total=%d unread=%d %+v", total, unread, items)
	}

	page, _, _, _ := svc.List(ctx, "E0041", 1, 5)
	if len(page) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(page))
	}
}

func TestStoreCapsEachInbox(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory(), "knockturn_notifications", 2)
	for _, n := range []Notification{
		{ID: "a1", UserCode: "E0041"},
		{ID: "b1", UserCode: "E0042"},
		{ID: "a2", UserCode: "E0041"},
		{ID: "a3", UserCode: "E0041"},
	} {
		if err := store.Append(ctx, n); err != nil {
			t.Fatal(err)
		}
	}

	mohan, err := store.ListFor(ctx, "E0041")
	if err != nil {
		t.Fatal(err)
	}
	if len(mohan) != 2 || mohan[0].ID != "a2" || mohan[1].ID != "a3" {
		t.Fatalf("expected the two newest kept, got %+v", mohan)
	}
	other, _ := store.ListFor(ctx, "E0042")
	if len(other) != 1 || other[0].ID != "b1" {
		t.Fatalf("other inbox should be untouched, got %+v", other)
	}
}
