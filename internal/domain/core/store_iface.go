package core

import "context"

type StoreAPI interface {
	LoadUsers(ctx context.Context) ([]User, error)
	// AddUserUnique appends user unless a stored code matches it
	// case-insensitively, in which case it returns ErrDuplicateCode.
	AddUserUnique(ctx context.Context, user User) ([]User, error)
}
