package records

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"leaveportal/internal/domain/auth"
	"leaveportal/internal/domain/core"
	"leaveportal/internal/domain/leave"
	"leaveportal/internal/platform/kv"
)

func fixedNow() time.Time {
	return time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC)
}

func TestLoadSeedsAndPersists(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	store := New(backend)

	users, err := store.LoadUsers(ctx)
	if err != nil {
		t.Fatalf("load users: %v", err)
	}
	if len(users) != 21 || users[0].Code != "A0001" || users[20].Code != "-" {
		t.Fatalf("unexpected seed users: %d", len(users))
	}
	if _, ok, _ := backend.Get(ctx, "knockturn_users"); !ok {
		t.Fatal("seed users were not persisted")
	}

	leaves, err := store.LoadLeaveRequests(ctx)
	if err != nil {
		t.Fatalf("load leaves: %v", err)
	}
	if len(leaves) != 2 || leaves[0].ID != "101" || leaves[1].Status != leave.StatusPending {
		t.Fatalf("unexpected seed leaves: %+v", leaves)
	}

	again, err := store.LoadUsers(ctx)
	if err != nil || len(again) != len(users) {
		t.Fatalf("second load differs: %d err=%v", len(again), err)
	}
}

func TestLoadDoesNotReseedExistingCollection(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	if err := backend.Set(ctx, "knockturn_leaves", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}

	leaves, err := New(backend).LoadLeaveRequests(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(leaves) != 0 {
		t.Fatalf("expected stored empty collection, got %d", len(leaves))
	}
}

func TestMalformedCollection(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	if err := backend.Set(ctx, "knockturn_leaves", []byte(`{not json`)); err != nil {
		t.Fatal(err)
	}

	_, err := New(backend).LoadLeaveRequests(ctx)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestAppendAndSetStatus(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory(), WithSeed(Seed{}), WithClock(fixedNow))

	req := leave.LeaveRequest{ID: "x1", EmployeeCode: "E0041", Type: leave.TypeSick, Status: leave.StatusPending, Description: "Viral fever", AppliedDate: "2025-11-01"}
	all, err := store.AppendLeaveRequest(ctx, req)
	if err != nil || len(all) != 1 {
		t.Fatalf("append: %d err=%v", len(all), err)
	}

	updated, found, err := store.SetLeaveStatus(ctx, "x1", leave.StatusApproved, "A0001 (SAM PARKESH)", "ok")
	if err != nil || !found {
		t.Fatalf("set status: found=%v err=%v", found, err)
	}
	got := updated[0]
	want := req
	want.Status = leave.StatusApproved
	want.ActionBy = "A0001 (SAM PARKESH)"
	want.ReasonForAction = "ok"
	want.ActionDate = "2025-11-02"
	if got != want {
		t.Fatalf("unexpected record:\n got %+v\nwant %+v", got, want)
	}

	reloaded, err := store.LoadLeaveRequests(ctx)
	if err != nil || reloaded[0] != want {
		t.Fatalf("update not persisted: %+v err=%v", reloaded, err)
	}
}

func TestSetStatusUnknownIDWritesNothing(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	store := New(backend)
	if _, err := store.LoadLeaveRequests(ctx); err != nil {
		t.Fatal(err)
	}
	before, _, _ := backend.Get(ctx, "knockturn_leaves")

	all, found, err := store.SetLeaveStatus(ctx, "999", leave.StatusApproved, "A0001 (SAM PARKESH)", "")
	if err != nil || found {
		t.Fatalf("expected silent not-found, found=%v err=%v", found, err)
	}
	if len(all) != 2 {
		t.Fatalf("expected collection returned unchanged, got %d", len(all))
	}
	after, _, _ := backend.Get(ctx, "knockturn_leaves")
	if !bytes.Equal(before, after) {
		t.Fatal("stored collection changed")
	}
}

func TestAppendDoesNotDedup(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory(), WithSeed(Seed{}))
	req := leave.LeaveRequest{ID: "dup"}
	if _, err := store.AppendLeaveRequest(ctx, req); err != nil {
		t.Fatal(err)
	}
	all, err := store.AppendLeaveRequest(ctx, req)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected both entries kept, got %d err=%v", len(all), err)
	}
}

func TestAddUser(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory(), WithKeyPrefix("test_"))
	users, err := store.AddUser(ctx, core.User{ID: "22", Code: "E0099", Name: "NEW HIRE", Role: auth.RoleEmployee})
	if err != nil || len(users) != 22 || users[21].Code != "E0099" {
		t.Fatalf("add user: %d err=%v", len(users), err)
	}
	if store.Key("users") != "test_users" {
		t.Fatalf("unexpected key %q", store.Key("users"))
	}
}

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory(), WithSeed(Seed{}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AppendLeaveRequest(ctx, leave.LeaveRequest{ID: "c"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	all, err := store.LoadLeaveRequests(ctx)
	if err != nil || len(all) != 20 {
		t.Fatalf("expected 20 requests, got %d err=%v", len(all), err)
	}
}

// gatedKV pauses the first Get after arm until release is closed.
type gatedKV struct {
	kv.Store
	armed   atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedKV() *gatedKV {
	return &gatedKV{Store: kv.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedKV) arm() { g.armed.Store(true) }

func (g *gatedKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if g.armed.Load() {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.Store.Get(ctx, key)
}

func TestStrictDecisionsRaceHasOneWinner(t *testing.T) {
	ctx := context.Background()
	backend := newGatedKV()
	store := New(backend, WithSeed(Seed{
		Users:  bootstrapUsers(),
		Leaves: []leave.LeaveRequest{{ID: "101", EmployeeCode: "E0041", Type: leave.TypeSick, Status: leave.StatusPending}},
	}), WithClock(fixedNow))
	svc := leave.NewService(store, leave.WithStrictDecisions(true))
	users, err := store.LoadUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadLeaveRequests(ctx); err != nil {
		t.Fatal(err)
	}
	first, second := users[0].Context(), users[1].Context()

	backend.arm()
	errs := make(chan error, 2)
	go func() {
		_, err := svc.Decide(ctx, "101", leave.StatusApproved, first, "")
		errs <- err
	}()
	<-backend.entered
	go func() {
		_, err := svc.Decide(ctx, "101", leave.StatusRejected, second, "too late")
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(backend.release)

	var won, lost int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			won++
		case errors.Is(err, leave.ErrAlreadyDecided):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected one winner and one conflict, got won=%d lost=%d", won, lost)
	}

	all, err := store.LoadLeaveRequests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all[0].Status != leave.StatusApproved || all[0].ActionBy != first.ActorLabel() {
		t.Fatalf("expected first decision to stand, got %+v", all[0])
	}
}

func TestSetStatusGuardBlocksWrite(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	store := New(backend, WithSeed(Seed{Leaves: []leave.LeaveRequest{{ID: "x1", Status: leave.StatusApproved}}}))
	if _, err := store.LoadLeaveRequests(ctx); err != nil {
		t.Fatal(err)
	}
	before, _, _ := backend.Get(ctx, "knockturn_leaves")

	refuse := errors.New("refused")
	change, err := store.SetLeaveStatusIf(ctx, "x1", leave.StatusRejected, "A0001 (SAM PARKESH)", "", func(prev leave.LeaveRequest) error {
		if prev.Status != leave.StatusPending {
			return refuse
		}
		return nil
	})
	if !errors.Is(err, refuse) {
		t.Fatalf("expected guard error, got %v", err)
	}
	if !change.Found || change.Previous.Status != leave.StatusApproved {
		t.Fatalf("expected previous record reported, got %+v", change)
	}
	after, _, _ := backend.Get(ctx, "knockturn_leaves")
	if !bytes.Equal(before, after) {
		t.Fatal("guarded update wrote anyway")
	}
}

func TestConcurrentDuplicateAddsKeepOne(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory(), WithSeed(Seed{}))
	svc := core.NewService(store)

	var wg sync.WaitGroup
	var created, duplicates atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, core.User{Code: "E0500", Name: "NEW HIRE", Role: auth.RoleEmployee})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, core.ErrDuplicateCode):
				duplicates.Add(1)
			default:
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 || duplicates.Load() != 19 {
		t.Fatalf("expected 1 created and 19 duplicates, got %d and %d", created.Load(), duplicates.Load())
	}
	users, err := store.LoadUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("expected a single stored user, got %d err=%v", len(users), err)
	}
}

// Scenario: empty seed, submit, approve, then check the sick balance.
func TestLifecycleOverStore(t *testing.T) {
	ctx := context.Background()
	store := New(kv.NewMemory(), WithSeed(Seed{Users: bootstrapUsers()}))
	svc := leave.NewService(store)
	users, err := store.LoadUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mohan, approver := users[3].Context(), users[0].Context()

	res, err := svc.Submit(ctx, mohan, leave.Draft{Type: leave.TypeSick, StartDate: "2025-10-10", EndDate: "2025-10-12", Duration: leave.DurationFullDay, Description: "Viral fever"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	all, _ := store.LoadLeaveRequests(ctx)
	if len(all) != 1 || all[0].Status != leave.StatusPending {
		t.Fatalf("expected one pending request, got %+v", all)
	}

	if _, err := svc.Decide(ctx, res.Request.ID, leave.StatusApproved, approver, ""); err != nil {
		t.Fatalf("decide: %v", err)
	}
	balance, err := svc.BalanceFor(ctx, "E0041", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if balance.Sick != (leave.TypeBalance{Total: 5, Used: 1, Remaining: 4}) {
		t.Fatalf("unexpected sick balance: %+v", balance.Sick)
	}
	if all, _ := store.LoadLeaveRequests(ctx); all[0].ActionBy != "A0001 (SAM PARKESH)" {
		t.Fatalf("unexpected actor: %q", all[0].ActionBy)
	}
}
