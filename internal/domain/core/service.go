package core

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateCode = errors.New("employee code already exists")
	ErrInvalidUser   = errors.New("invalid user")
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.LoadUsers(ctx)
}

// Search matches term case-insensitively against name, code and department.
// An empty term returns every user.
func (s *Service) Search(ctx context.Context, term string) ([]User, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return users, nil
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Code), needle) ||
			strings.Contains(strings.ToLower(u.Department), needle) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Service) FindByCode(ctx context.Context, code string) (User, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Code == code {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

// Departments returns the distinct non-empty departments, sorted.
func (s *Service) Departments(ctx context.Context) ([]string, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, u := range users {
		if u.Department == "" {
			continue
		}
		if _, ok := seen[u.Department]; ok {
			continue
		}
		seen[u.Department] = struct{}{}
		out = append(out, u.Department)
	}
	sort.Strings(out)
	return out, nil
}

// Add registers a new user. Codes are unique; the id is generated when
// missing.
func (s *Service) Add(ctx context.Context, user User) (User, error) {
	user.Code = strings.TrimSpace(user.Code)
	user.Name = strings.TrimSpace(user.Name)
	if user.Code == "" || user.Name == "" || !user.Role.Valid() {
		return User{}, ErrInvalidUser
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, err := s.store.AddUserUnique(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}
