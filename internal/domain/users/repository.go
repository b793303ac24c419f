// Package users defines the user-existence collaborator consulted before any
// wallet operation runs.
package users

import "context"

// Repository answers whether a user is known to the system.
type Repository interface {
	Exists(ctx context.Context, userID string) (bool, error)
}
