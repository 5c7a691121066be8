package users

import (
	"context"
)

// UserStore defines the interface for user storage operations
type UserStore interface {
	CreateUser(ctx context.Context, doc Document) (Document, error)
	ListUsers(ctx context.Context) ([]Document, error)
	GetUser(ctx context.Context, userID string) (Document, error)
	UpdateUser(ctx context.Context, userID string, patch Document) (Document, error)
	DeleteUser(ctx context.Context, userID string) (Document, error)

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error
	// Close releases the store connection
	Close(ctx context.Context) error
}

// UserService defines the interface for user service operations
type UserService interface {
	CreateUser(ctx context.Context, doc Document) (Document, error)
	ListUsers(ctx context.Context) ([]Document, error)
	GetUser(ctx context.Context, userID string) (Document, error)
	UpdateUser(ctx context.Context, userID string, patch Document) (Document, error)
	DeleteUser(ctx context.Context, userID string) (Document, error)
}
