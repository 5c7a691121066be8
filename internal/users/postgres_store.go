package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// UserSchema represents the users table in PostgreSQL. Every user document is
// kept whole in a jsonb column.
type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID      `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Doc       map[string]any `bun:"doc,type:jsonb,notnull"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// PostgresStore implements UserStore interface with PostgreSQL storage
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// CreateTable creates the users table if it does not exist yet
func (s *PostgresStore) CreateTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*UserSchema)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, doc Document) (Document, error) {
	now := time.Now()
	schema := &UserSchema{
		ID:        uuid.New(),
		Doc:       doc.withoutID(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.NewInsert().
		Model(schema).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, classifyPostgresError("insert", "", err)
	}

	return schemaToDocument(schema), nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]Document, error) {
	var schemas []UserSchema
	err := s.db.NewSelect().
		Model(&schemas).
		Scan(ctx)
	if err != nil {
		return nil, classifyPostgresError("select", "", err)
	}

	out := make([]Document, 0, len(schemas))
	for i := range schemas {
		out = append(out, schemaToDocument(&schemas[i]))
	}
	return out, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (Document, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, NewInvalidIDError(userID, err)
	}

	var schema UserSchema
	err = s.db.NewSelect().
		Model(&schema).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, classifyPostgresError("select", userID, err)
	}

	return schemaToDocument(&schema), nil
}

// UpdateUser merges patch into the stored document with the jsonb || operator
func (s *PostgresStore) UpdateUser(ctx context.Context, userID string, patch Document) (Document, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, NewInvalidIDError(userID, err)
	}

	patchJSON, err := json.Marshal(patch.withoutID())
	if err != nil {
		return nil, NewUserValidationError(userID, err)
	}

	var schema UserSchema
	err = s.db.NewUpdate().
		Model(&schema).
		Set("doc = doc || ?::jsonb", string(patchJSON)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, classifyPostgresError("update", userID, err)
	}

	return schemaToDocument(&schema), nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, userID string) (Document, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, NewInvalidIDError(userID, err)
	}

	var schema UserSchema
	err = s.db.NewDelete().
		Model(&schema).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, classifyPostgresError("delete", userID, err)
	}

	return schemaToDocument(&schema), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func schemaToDocument(schema *UserSchema) Document {
	doc := Document(schema.Doc).Clone()
	if doc == nil {
		doc = Document{}
	}
	doc[IDField] = schema.ID.String()
	return doc
}

func classifyPostgresError(operation, userID string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NewUserNotFoundError(userID)
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		// class 22 is data exception, class 23 integrity constraint violation
		if pgErr.IntegrityViolation() || strings.HasPrefix(pgErr.Field('C'), "22") {
			return NewUserValidationError(userID, err)
		}
	}

	return NewStorageError(operation, userID, err)
}
