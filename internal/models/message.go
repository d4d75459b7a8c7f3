package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStatus tracks whether the owner has replied to a message.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusProcessed MessageStatus = "processed"
)

// MessageFrom tags who authored a message entry.
type MessageFrom string

const (
	MessageFromClient MessageFrom = "client"
	MessageFromOwner  MessageFrom = "owner"
)

// ValidMessageFrom reports whether s is an allowed message direction.
func ValidMessageFrom(s string) bool {
	return MessageFrom(s) == MessageFromClient || MessageFrom(s) == MessageFromOwner
}

// Message is one entry in a client/owner conversation about a listing.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ListingID   primitive.ObjectID `bson:"listing_id" json:"listing_id"`
	ClientName  string             `bson:"client_name" json:"client_name"`
	ClientEmail string             `bson:"client_email" json:"client_email"`
	ClientPhone string             `bson:"client_phone,omitempty" json:"client_phone,omitempty"`
	Body        string             `bson:"body" json:"body"`
	Reply       string             `bson:"reply" json:"reply"`
	Status      MessageStatus      `bson:"status" json:"status"`
	From        MessageFrom        `bson:"from" json:"from"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// MessageWithListing is a message annotated with its listing's title
// for inbox and thread views.
type MessageWithListing struct {
	Message      `bson:",inline"`
	ListingTitle string `bson:"listing_title" json:"listing_title"`
}
