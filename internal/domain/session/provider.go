// Package session resolves an employee code to the acting user and remembers
// each signed-in user under its own current_session:<CODE> key.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"leaveportal/internal/domain/core"
	"leaveportal/internal/platform/kv"
)

var ErrUnknownCode = errors.New("unknown employee code")

type Provider struct {
	users core.StoreAPI
	kv    kv.Store
	key   string
}

func NewProvider(users core.StoreAPI, backend kv.Store, key string) *Provider {
	return &Provider{users: users, kv: backend, key: key}
}

// NormalizeCode trims and upper-cases a code typed at the login form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SignIn accepts any known code. No password is checked.
func (p *Provider) SignIn(ctx context.Context, code string) (core.User, error) {
	code = NormalizeCode(code)
	if code == "" {
		return core.User{}, ErrUnknownCode
	}
	users, err := p.users.LoadUsers(ctx)
	if err != nil {
		return core.User{}, err
	}
	for _, u := range users {
		if strings.ToUpper(u.Code) != code {
			continue
		}
		raw, err := json.Marshal(u)
		if err != nil {
			return core.User{}, err
		}
		if err := p.kv.Set(ctx, p.keyFor(code), raw); err != nil {
			return core.User{}, fmt.Errorf("store session: %w", err)
		}
		return u, nil
	}
	return core.User{}, ErrUnknownCode
}

// SignOut ends the session of code only.
func (p *Provider) SignOut(ctx context.Context, code string) error {
	return p.kv.Delete(ctx, p.keyFor(NormalizeCode(code)))
}

// CurrentUser returns the signed-in user for code, ok=false after SignOut or
// before any SignIn.
func (p *Provider) CurrentUser(ctx context.Context, code string) (core.User, bool, error) {
	raw, ok, err := p.kv.Get(ctx, p.keyFor(NormalizeCode(code)))
	if err != nil || !ok {
		return core.User{}, false, err
	}
	var u core.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return core.User{}, false, fmt.Errorf("decode session: %w", err)
	}
	return u, true, nil
}

func (p *Provider) keyFor(code string) string {
	return p.key + ":" + code
}
