package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Socials holds a user's optional profile links.
type Socials struct {
	GitHub   string `json:"github,omitempty"   bson:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
}

// User is a document in the users collection. Email is stored lowercased
// and enforced unique by index.
type User struct {
	ID           primitive.ObjectID `json:"id"                bson:"_id,omitempty"`
	Name         string             `json:"name"              bson:"name"`
	Email        string             `json:"email"             bson:"email"`
	PasswordHash string             `json:"-"                 bson:"passwordHash"`
	Bio          string             `json:"bio,omitempty"     bson:"bio,omitempty"`
	Socials      *Socials           `json:"socials,omitempty" bson:"socials,omitempty"`
	Role         string             `json:"role"              bson:"role"`
	CreatedAt    time.Time          `json:"created_at"        bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updated_at"        bson:"updatedAt"`
}

// OwnerID makes User usable with the ownership middleware: a profile is
// owned by the user it describes.
func (u User) OwnerID() string { return u.ID.Hex() }

// UserSummary is the public projection used when populating authors.
type UserSummary struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name"`
	Socials *Socials           `json:"socials,omitempty"`
}

// SignupRequest is the JSON body for POST /api/auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdate is the JSON body for PUT /api/users/{id}. Nil fields are
// left untouched.
type UserUpdate struct {
	Name    *string  `json:"name"`
	Bio     *string  `json:"bio"`
	Socials *Socials `json:"socials"`
}
