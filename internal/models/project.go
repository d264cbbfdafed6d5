package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a document in the projects collection. Comments are a reverse
// lookup by project id, never embedded.
type Project struct {
	ID          primitive.ObjectID `json:"id"                  bson:"_id,omitempty"`
	Title       string             `json:"title"               bson:"title"`
	Description string             `json:"description"         bson:"description"`
	Links       []string           `json:"links"               bson:"links"`
	CoverURL    string             `json:"cover_url,omitempty" bson:"coverUrl,omitempty"`
	Author      primitive.ObjectID `json:"author"              bson:"author"`
	CreatedAt   time.Time          `json:"created_at"          bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updated_at"          bson:"updatedAt"`
}

func (p Project) OwnerID() string { return p.Author.Hex() }

// Comment is a document in the comments collection.
type Comment struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	Content   string             `json:"content"    bson:"content"`
	Author    primitive.ObjectID `json:"author"     bson:"author"`
	Project   primitive.ObjectID `json:"project"    bson:"project"`
	CreatedAt time.Time          `json:"created_at" bson:"createdAt"`
}

func (c Comment) OwnerID() string { return c.Author.Hex() }

// ProjectView is a Project with its author populated, as returned by list
// and search endpoints. The embedded author id is shadowed by the summary.
type ProjectView struct {
	Project
	Author *UserSummary `json:"author"`
}

// CommentView is a Comment with its author populated.
type CommentView struct {
	Comment
	Author *UserSummary `json:"author"`
}

// ProjectDetail is the response for GET /api/projects/{id}: the project
// with author and comments populated.
type ProjectDetail struct {
	Project
	Author   *UserSummary  `json:"author"`
	Comments []CommentView `json:"comments"`
}

// ProjectUpdate is the JSON body for PUT /api/projects/{id}. Nil fields
// are left untouched; Links, when present, is the raw comma-separated
// form also accepted at creation.
type ProjectUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Links       *string `json:"links"`
}
