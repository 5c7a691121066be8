package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore captures what the service hands to the store
type recordingStore struct {
	*MemoryStore
	created Document
	patched Document
	updates int
}

func (r *recordingStore) CreateUser(ctx context.Context, doc Document) (Document, error) {
	r.created = doc
	return r.MemoryStore.CreateUser(ctx, doc)
}

func (r *recordingStore) UpdateUser(ctx context.Context, userID string, patch Document) (Document, error) {
	r.patched = patch
	r.updates++
	return r.MemoryStore.UpdateUser(ctx, userID, patch)
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: NewMemoryStore()}
}

func TestServiceCreateIgnoresClientID(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	service := NewUserService(store, nil)

	user, err := service.CreateUser(ctx, Document{IDField: "client-chosen", "name": "Alice"})
	require.NoError(t, err)

	assert.NotContains(t, store.created, IDField)
	assert.NotEqual(t, "client-chosen", user.ID())
	assert.Len(t, user.ID(), 24)
}

func TestServiceCreateAppliesSchema(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	service := NewUserService(store, newTestSchema(t, false))

	user, err := service.CreateUser(ctx, Document{"name": "Alice", "age": "30"})
	require.NoError(t, err)
	assert.Equal(t, 30.0, user["age"])

	_, err = service.CreateUser(ctx, Document{"age": 30.0})
	require.Error(t, err)
	assert.Equal(t, UserErrorTypeValidationFailed, ErrorType(err))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	service := NewUserService(store, newTestSchema(t, false))

	created, err := service.CreateUser(ctx, Document{"name": "Alice", "age": 30.0})
	require.NoError(t, err)

	t.Run("IDIsImmutable", func(t *testing.T) {
		_, err := service.UpdateUser(ctx, created.ID(), Document{IDField: "other"})
		require.Error(t, err)
		assert.Equal(t, UserErrorTypeValidationFailed, ErrorType(err))
		assert.Equal(t, 0, store.updates)
	})

	t.Run("PartialPatchIsCoerced", func(t *testing.T) {
		updated, err := service.UpdateUser(ctx, created.ID(), Document{"age": "31"})
		require.NoError(t, err)

		assert.Equal(t, Document{"age": 31.0}, store.patched)
		assert.Equal(t, "Alice", updated["name"])
		assert.Equal(t, 31.0, updated["age"])
	})

	t.Run("EmptyPatchReturnsCurrentDocument", func(t *testing.T) {
		before := store.updates
		current, err := service.UpdateUser(ctx, created.ID(), Document{})
		require.NoError(t, err)

		assert.Equal(t, before, store.updates, "store update is skipped")
		assert.Equal(t, created.ID(), current.ID())
	})

	t.Run("EmptyPatchOnMissingUser", func(t *testing.T) {
		_, err := service.UpdateUser(ctx, "0123456789abcdef01234567", nil)
		assert.True(t, IsNotFound(err))
	})
}

func TestServiceRejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	service := NewUserService(NewMemoryStore(), nil)

	_, err := service.GetUser(ctx, "")
	assert.Equal(t, UserErrorTypeInvalidID, ErrorType(err))

	_, err = service.UpdateUser(ctx, "", Document{"a": 1.0})
	assert.Equal(t, UserErrorTypeInvalidID, ErrorType(err))

	_, err = service.DeleteUser(ctx, "")
	assert.Equal(t, UserErrorTypeInvalidID, ErrorType(err))
}

func TestErrorType(t *testing.T) {
	cause := errors.New("socket closed")
	wrapped := NewStorageError("find", "", cause)

	assert.Equal(t, UserErrorTypeStorageFailed, ErrorType(wrapped))
	assert.Equal(t, UserErrorTypeStorageFailed, ErrorType(cause))
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "storage operation find failed")

	assert.True(t, IsNotFound(NewUserNotFoundError("abc")))
	assert.False(t, IsNotFound(nil))
	assert.Contains(t, NewUserNotFoundError("abc").Error(), "for user abc")
}
