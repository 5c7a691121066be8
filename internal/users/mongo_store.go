package users

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// server error code returned when a write fails the collection validator
const documentValidationFailure = 121

// MongoStore implements the UserStore interface using a MongoDB collection
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore creates a new user store on the given database and collection
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

// CreateUser inserts the document and returns it with its assigned _id
func (s *MongoStore) CreateUser(ctx context.Context, doc Document) (Document, error) {
	stored := doc.withoutID()

	result, err := s.collection.InsertOne(ctx, bson.M(stored))
	if err != nil {
		return nil, classifyMongoError("insert", "", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, NewStorageError("insert", "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID))
	}

	stored[IDField] = oid.Hex()
	return stored, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]Document, error) {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, classifyMongoError("find", "", err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, classifyMongoError("find", "", err)
	}

	out := make([]Document, 0, len(raw))
	for _, r := range raw {
		out = append(out, fromBSON(r))
	}
	return out, nil
}

func (s *MongoStore) GetUser(ctx context.Context, userID string) (Document, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, NewInvalidIDError(userID, err)
	}

	var raw bson.M
	err = s.collection.FindOne(ctx, bson.M{IDField: oid}).Decode(&raw)
	if err != nil {
		return nil, classifyMongoError("findOne", userID, err)
	}

	return fromBSON(raw), nil
}

// UpdateUser applies patch with $set and returns the document after the update
func (s *MongoStore) UpdateUser(ctx context.Context, userID string, patch Document) (Document, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, NewInvalidIDError(userID, err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var raw bson.M
	err = s.collection.FindOneAndUpdate(ctx,
		bson.M{IDField: oid},
		bson.M{"$set": bson.M(patch.withoutID())},
		opts,
	).Decode(&raw)
	if err != nil {
		return nil, classifyMongoError("findOneAndUpdate", userID, err)
	}

	return fromBSON(raw), nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, userID string) (Document, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, NewInvalidIDError(userID, err)
	}

	var raw bson.M
	err = s.collection.FindOneAndDelete(ctx, bson.M{IDField: oid}).Decode(&raw)
	if err != nil {
		return nil, classifyMongoError("findOneAndDelete", userID, err)
	}

	return fromBSON(raw), nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// fromBSON converts a decoded document, rendering the ObjectID as hex.
func fromBSON(raw bson.M) Document {
	doc := Document(raw)
	if oid, ok := doc[IDField].(primitive.ObjectID); ok {
		doc[IDField] = oid.Hex()
	}
	return doc
}

func classifyMongoError(operation, userID string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NewUserNotFoundError(userID)
	}
	if mongo.IsDuplicateKeyError(err) {
		return NewUserValidationError(userID, err)
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(documentValidationFailure) {
		return NewUserValidationError(userID, err)
	}

	return NewStorageError(operation, userID, err)
}
