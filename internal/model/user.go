package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document in MongoDB. The password hash never leaves
// the repo layer; every outward projection goes through UserSummary.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Photo        string             `json:"photo" bson:"photo"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	IsActive     bool               `json:"isActive" bson:"is_active"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    *time.Time         `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

// UserSummary is the minimal display projection joined into message payloads.
type UserSummary struct {
	ID    string `json:"id" bson:"user_id"`
	Name  string `json:"name" bson:"name"`
	Photo string `json:"photo" bson:"photo"`
}

// Summary projects a user down to its display fields.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Photo: u.Photo,
	}
}
