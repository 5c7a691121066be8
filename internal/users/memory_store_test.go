package users

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.CreateUser(ctx, Document{"name": "Alice", "age": 30.0})
	require.NoError(t, err)
	id := created.ID()
	require.NotEmpty(t, id)

	got, err := store.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := store.UpdateUser(ctx, id, Document{"age": 31.0})
	require.NoError(t, err)
	assert.Equal(t, Document{IDField: id, "name": "Alice", "age": 31.0}, updated)

	deleted, err := store.DeleteUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, updated, deleted)

	_, err = store.GetUser(ctx, id)
	assert.True(t, IsNotFound(err))

	_, err = store.DeleteUser(ctx, id)
	assert.True(t, IsNotFound(err))

	_, err = store.UpdateUser(ctx, id, Document{"age": 32.0})
	assert.True(t, IsNotFound(err))
}

func TestMemoryStoreInvalidID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetUser(ctx, "not-an-object-id")
	assert.Equal(t, UserErrorTypeInvalidID, ErrorType(err))

	_, err = store.UpdateUser(ctx, "xyz", Document{"a": 1.0})
	assert.Equal(t, UserErrorTypeInvalidID, ErrorType(err))

	_, err = store.DeleteUser(ctx, "xyz")
	assert.Equal(t, UserErrorTypeInvalidID, ErrorType(err))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	input := Document{"name": "Alice"}
	created, err := store.CreateUser(ctx, input)
	require.NoError(t, err)

	input["name"] = "Mallory"
	created["name"] = "Mallory"

	got, err := store.GetUser(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "Alice", got["name"])
	assert.NotContains(t, input, IDField)
}

func TestMemoryStoreConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := store.CreateUser(ctx, Document{"name": fmt.Sprintf("user-%d", i)})
			if err == nil {
				ids <- doc.ID()
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	all, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
}
