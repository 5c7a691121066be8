package users

import (
	"context"
)

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	store  UserStore
	schema *Schema
}

// NewUserService creates a new user service instance. A nil schema accepts
// every document.
func NewUserService(store UserStore, schema *Schema) *UserServiceImpl {
	return &UserServiceImpl{
		store:  store,
		schema: schema,
	}
}

// CreateUser creates a new user. Any client supplied _id is discarded since
// identifiers are assigned by the store.
func (s *UserServiceImpl) CreateUser(ctx context.Context, doc Document) (Document, error) {
	validated, err := s.schema.Apply(doc.withoutID(), false)
	if err != nil {
		return nil, NewUserValidationError("", err)
	}
	return s.store.CreateUser(ctx, validated)
}

// ListUsers returns every user in the collection
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]Document, error) {
	return s.store.ListUsers(ctx)
}

// GetUser returns a single user
func (s *UserServiceImpl) GetUser(ctx context.Context, userID string) (Document, error) {
	if userID == "" {
		return nil, NewInvalidIDError(userID, nil)
	}
	return s.store.GetUser(ctx, userID)
}

// UpdateUser replaces the given top-level fields of a user
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID string, patch Document) (Document, error) {
	if userID == "" {
		return nil, NewInvalidIDError(userID, nil)
	}
	if value, ok := patch[IDField]; ok {
		return nil, NewUserValidationError(userID, NewValidationError(IDField, value, "field is immutable"))
	}

	validated, err := s.schema.Apply(patch, true)
	if err != nil {
		return nil, NewUserValidationError(userID, err)
	}

	if len(validated) == 0 {
		return s.store.GetUser(ctx, userID)
	}
	return s.store.UpdateUser(ctx, userID, validated)
}

// DeleteUser deletes a user and returns the removed document
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID string) (Document, error) {
	if userID == "" {
		return nil, NewInvalidIDError(userID, nil)
	}
	return s.store.DeleteUser(ctx, userID)
}
