package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the fixed set of property types a listing can have.
type Category string

const (
	CategoryStudio    Category = "studio"
	CategoryApartment Category = "apartment"
	CategoryVilla     Category = "villa"
	CategoryDuplex    Category = "duplex"
	CategoryRoom      Category = "room"
)

// ValidCategory reports whether s is one of the allowed listing categories.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryStudio, CategoryApartment, CategoryVilla, CategoryDuplex, CategoryRoom:
		return true
	}
	return false
}

// Listing represents a property listing published by an owner.
type Listing struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title       string             `bson:"title" json:"title"`
	Location    string             `bson:"location" json:"location"`
	Category    Category           `bson:"type" json:"type"`
	Price       float64            `bson:"price" json:"price"`
	Description string             `bson:"description" json:"description"`
	Images      []string           `bson:"images" json:"images"` // stored filenames, upload order
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// ListingWithOwner is a listing joined with its owner's public details
// for the read endpoints.
type ListingWithOwner struct {
	Listing `bson:",inline"`
	Owner   *OwnerSummary `bson:"owner,omitempty" json:"owner,omitempty"`
}
