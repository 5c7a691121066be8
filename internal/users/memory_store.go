package users

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps users in process memory. Identifiers are ObjectIDs so that
// id handling matches MongoStore.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]Document
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[primitive.ObjectID]Document),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, doc Document) (Document, error) {
	oid := primitive.NewObjectID()
	stored := doc.withoutID()
	stored[IDField] = oid.Hex()

	s.mu.Lock()
	s.users[oid] = stored
	s.mu.Unlock()

	return stored.Clone(), nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.users))
	for _, doc := range s.users {
		out = append(out, doc.Clone())
	}
	return out, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (Document, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, NewInvalidIDError(userID, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.users[oid]
	if !ok {
		return nil, NewUserNotFoundError(userID)
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, userID string, patch Document) (Document, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, NewInvalidIDError(userID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.users[oid]
	if !ok {
		return nil, NewUserNotFoundError(userID)
	}

	updated := doc.Clone()
	for field, value := range patch {
		if field == IDField {
			continue
		}
		updated[field] = value
	}
	s.users[oid] = updated

	return updated.Clone(), nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, userID string) (Document, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, NewInvalidIDError(userID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.users[oid]
	if !ok {
		return nil, NewUserNotFoundError(userID)
	}
	delete(s.users, oid)

	return doc, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
