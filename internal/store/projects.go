package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devfolio/backend/internal/models"
)

// ProjectFilter narrows project listing. Search is a case-insensitive
// substring over title/description; AuthorIn widens the search to projects
// whose author matched a user-name search.
type ProjectFilter struct {
	Author   *primitive.ObjectID
	Search   string
	AuthorIn []primitive.ObjectID
}

func (f ProjectFilter) query() bson.M {
	q := bson.M{}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		or := []bson.M{{"title": rx}, {"description": rx}}
		if len(f.AuthorIn) > 0 {
			or = append(or, bson.M{"author": bson.M{"$in": f.AuthorIn}})
		}
		q["$or"] = or
	}
	if f.Author != nil {
		q["author"] = *f.Author
	}
	return q
}

func (s *Store) InsertProject(ctx context.Context, p *models.Project) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := s.projects.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ListProjects returns one page, newest first, plus the total match count.
func (s *Store) ListProjects(ctx context.Context, f ProjectFilter, page, limit int) ([]models.Project, int64, error) {
	filter := f.query()

	count, err := s.projects.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := s.projects.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, 0, err
	}
	return projects, count, nil
}

func (s *Store) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var p models.Project
	err = s.projects.FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProjectChanges carries the validated field updates for a project.
type ProjectChanges struct {
	Title       *string
	Description *string
	Links       []string
}

func (s *Store) UpdateProject(ctx context.Context, id string, ch ProjectChanges) (*models.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now()}
	if ch.Title != nil {
		set["title"] = *ch.Title
	}
	if ch.Description != nil {
		set["description"] = *ch.Description
	}
	if ch.Links != nil {
		set["links"] = ch.Links
	}

	var p models.Project
	err = s.projects.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.projects.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
