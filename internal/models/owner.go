package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"locmaison/backend/internal/auth"
)

// Owner represents a property owner account.
type Owner struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	PasswordHash string             `bson:"password" json:"-"` // Store hash, not plaintext
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewOwner builds a persistable Owner from registration input. The
// password is hashed here; no code path stores the plaintext.
func NewOwner(name, email, phone, password string) (*Owner, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Owner{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// OwnerSummary is the owner shape embedded in API responses.
type OwnerSummary struct {
	ID    string `bson:"-" json:"id,omitempty"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Summary returns the public projection of the owner.
func (o *Owner) Summary() OwnerSummary {
	return OwnerSummary{
		ID:    o.ID.Hex(),
		Name:  o.Name,
		Email: o.Email,
		Phone: o.Phone,
	}
}
