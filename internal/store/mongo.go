package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when an id is malformed or no document matches.
var ErrNotFound = errors.New("not found")

// Store handles User, Project and Comment CRUD in MongoDB.
type Store struct {
	users    *mongo.Collection
	projects *mongo.Collection
	comments *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		users:    db.Collection("users"),
		projects: db.Collection("projects"),
		comments: db.Collection("comments"),
	}
}

// EnsureIndexes creates the unique email index. Emails are lowercased on
// write; the collation makes the uniqueness case-insensitive regardless.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetCollation(&options.Collation{Locale: "en", Strength: 2}),
	})
	if err != nil {
		return err
	}

	_, err = s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project", Value: 1}},
	})
	return err
}
