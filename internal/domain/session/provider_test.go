package session

import (
	"context"
	"errors"
	"testing"

	"leaveportal/internal/domain/auth"
	"leaveportal/internal/domain/core"
	"leaveportal/internal/platform/kv"
)

type staticUsers []core.User

func (s staticUsers) LoadUsers(ctx context.Context) ([]core.User, error) {
	return s, nil
}

func (s staticUsers) AddUserUnique(ctx context.Context, user core.User) ([]core.User, error) {
	return append(s, user), nil
}

func newProvider() (*Provider, kv.Store) {
	users := staticUsers{
		{ID: "1", Code: "A0001", Name: "SAM PARKESH", Role: auth.RoleAdmin},
		{ID: "4", Code: "E0041", Name: "MOHAN RAJ C", Role: auth.RoleEmployee, Department: "Engineering"},
	}
	backend := kv.NewMemory()
	return NewProvider(users, backend, "knockturn_current_session"), backend
}

func TestSignInNormalizesCode(t *testing.T) {
	ctx := context.Background()
	p, backend := newProvider()

	u, err := p.SignIn(ctx, "  e0041 ")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if u.Name != "MOHAN RAJ C" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, ok, _ := backend.Get(ctx, "knockturn_current_session:E0041"); !ok {
		t.Fatal("session not persisted")
	}

	current, ok, err := p.CurrentUser(ctx, "e0041")
	if err != nil || !ok || current.Code != "E0041" {
		t.Fatalf("unexpected current user %+v ok=%v err=%v", current, ok, err)
	}
}

func TestSignInUnknownCode(t *testing.T) {
	p, _ := newProvider()
	for _, code := range []string{"", "   ", "Z9999"} {
		if _, err := p.SignIn(context.Background(), code); !errors.Is(err, ErrUnknownCode) {
			t.Fatalf("%q: expected ErrUnknownCode, got %v", code, err)
		}
	}
}

func TestSignOutEndsOnlyThatSession(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider()
	for _, code := range []string{"A0001", "E0041"} {
		if _, err := p.SignIn(ctx, code); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.SignOut(ctx, "A0001"); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := p.CurrentUser(ctx, "A0001"); ok || err != nil {
		t.Fatalf("expected no session, ok=%v err=%v", ok, err)
	}
	u, ok, err := p.CurrentUser(ctx, "E0041")
	if err != nil || !ok || u.Code != "E0041" {
		t.Fatalf("other session should survive, got %+v ok=%v err=%v", u, ok, err)
	}
}
