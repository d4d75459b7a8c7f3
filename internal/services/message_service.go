package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locmaison/backend/internal/db"
	"locmaison/backend/internal/models"
)

// ErrInvalidFrom is returned when a message direction is outside {client, owner}.
var ErrInvalidFrom = errors.New("invalid message direction")

// ListingDeletedTitle is the sentinel shown when a message's listing no
// longer resolves.
const ListingDeletedTitle = "listing deleted"

// IMessageService defines the interface for message operations.
type IMessageService interface {
	CreateFromClient(ctx context.Context, listingID primitive.ObjectID, name, email, phone, body string) (*models.Message, error)
	Send(ctx context.Context, listingID primitive.ObjectID, email, body, from, name string) (*models.Message, error)
	ListForOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.MessageWithListing, error)
	ThreadForClient(ctx context.Context, email string) ([]models.MessageWithListing, error)
	Reply(ctx context.Context, messageID, ownerID primitive.ObjectID, reply string) (*models.Message, error)
	Delete(ctx context.Context, messageID, ownerID primitive.ObjectID) error
}

const messagesCollection = "messages"

// messageService implements IMessageService.
type messageService struct {
	db *mongo.Database
}

// NewMessageService creates a new MessageService.
func NewMessageService(db *mongo.Database) IMessageService {
	return &messageService{db: db}
}

// listingExists verifies the target listing resolves before a message
// is attached to it.
func (s *messageService) listingExists(ctx context.Context, listingID primitive.ObjectID) error {
	count, err := s.db.Collection(listingsCollection).CountDocuments(ctx, bson.M{"_id": listingID})
	if err != nil {
		return fmt.Errorf("error checking listing %s: %w", listingID.Hex(), err)
	}
	if count == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// insert persists a message built by the given constructor. The
// constructor runs inside the retry closure so a duplicate-key retry
// inserts under a fresh ID.
func (s *messageService) insert(ctx context.Context, listingID primitive.ObjectID, build func() *models.Message) (*models.Message, error) {
	var msg *models.Message
	operation := func() error {
		msg = build()
		_, insertErr := s.db.Collection(messagesCollection).InsertOne(ctx, msg)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert message for listing %s: %w", listingID.Hex(), err)
	}
	return msg, nil
}

// CreateFromClient records a new client enquiry about a listing.
// Always pending, always from=client.
func (s *messageService) CreateFromClient(ctx context.Context, listingID primitive.ObjectID, name, email, phone, body string) (*models.Message, error) {
	if err := s.listingExists(ctx, listingID); err != nil {
		return nil, err
	}

	return s.insert(ctx, listingID, func() *models.Message {
		return &models.Message{
			ID:          primitive.NewObjectID(),
			ListingID:   listingID,
			ClientName:  name,
			ClientEmail: email,
			ClientPhone: phone,
			Body:        body,
			Reply:       "",
			Status:      models.MessageStatusPending,
			From:        models.MessageFromClient,
			CreatedAt:   time.Now().UTC(),
		}
	})
}

// Send appends a message to an existing thread from either party.
// The listing existence check matches the client-create path.
func (s *messageService) Send(ctx context.Context, listingID primitive.ObjectID, email, body, from, name string) (*models.Message, error) {
	if !models.ValidMessageFrom(from) {
		return nil, ErrInvalidFrom
	}
	if err := s.listingExists(ctx, listingID); err != nil {
		return nil, err
	}

	return s.insert(ctx, listingID, func() *models.Message {
		return &models.Message{
			ID:          primitive.NewObjectID(),
			ListingID:   listingID,
			ClientName:  name,
			ClientEmail: email,
			Body:        body,
			Reply:       "",
			Status:      models.MessageStatusPending,
			From:        models.MessageFrom(from),
			CreatedAt:   time.Now().UTC(),
		}
	})
}

// joinListingTitles annotates messages with their listing's title,
// falling back to the deleted sentinel when the reference is gone.
func (s *messageService) joinListingTitles(ctx context.Context, messages []models.Message) ([]models.MessageWithListing, error) {
	listingColl := s.db.Collection(listingsCollection)
	titles := make(map[primitive.ObjectID]string)

	results := make([]models.MessageWithListing, 0, len(messages))
	for _, m := range messages {
		title, seen := titles[m.ListingID]
		if !seen {
			var listing models.Listing
			err := listingColl.FindOne(ctx, bson.M{"_id": m.ListingID}).Decode(&listing)
			switch {
			case err == nil:
				title = listing.Title
			case errors.Is(err, mongo.ErrNoDocuments):
				title = ListingDeletedTitle
			default:
				return nil, fmt.Errorf("error joining listing %s: %w", m.ListingID.Hex(), err)
			}
			titles[m.ListingID] = title
		}
		results = append(results, models.MessageWithListing{Message: m, ListingTitle: title})
	}
	return results, nil
}

// ListForOwner returns every message on the caller's listings, newest first.
func (s *messageService) ListForOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.MessageWithListing, error) {
	listingColl := s.db.Collection(listingsCollection)

	cursor, err := listingColl.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query listings for owner %s: %w", ownerID.Hex(), err)
	}
	var idDocs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &idDocs); err != nil {
		return nil, fmt.Errorf("failed to decode listing IDs for owner %s: %w", ownerID.Hex(), err)
	}
	listingIDs := make([]primitive.ObjectID, len(idDocs))
	for i, d := range idDocs {
		listingIDs[i] = d.ID
	}

	msgCursor, err := s.db.Collection(messagesCollection).Find(ctx,
		bson.M{"listing_id": bson.M{"$in": listingIDs}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for owner %s: %w", ownerID.Hex(), err)
	}
	var messages []models.Message
	if err = msgCursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages for owner %s: %w", ownerID.Hex(), err)
	}

	return s.joinListingTitles(ctx, messages)
}

// ThreadForClient returns a client's full thread across all listings,
// oldest first.
func (s *messageService) ThreadForClient(ctx context.Context, email string) ([]models.MessageWithListing, error) {
	cursor, err := s.db.Collection(messagesCollection).Find(ctx,
		bson.M{"client_email": email},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query thread for %s: %w", email, err)
	}
	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode thread for %s: %w", email, err)
	}

	return s.joinListingTitles(ctx, messages)
}

// findOwnedMessage fetches a message and applies the ownership guard
// through its parent listing. A missing message or parent listing is
// mongo.ErrNoDocuments; an owner mismatch is ErrNotOwner.
func (s *messageService) findOwnedMessage(ctx context.Context, messageID, ownerID primitive.ObjectID) (*models.Message, error) {
	var msg models.Message
	err := s.db.Collection(messagesCollection).FindOne(ctx, bson.M{"_id": messageID}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding message %s: %w", messageID.Hex(), err)
	}

	var listing models.Listing
	err = s.db.Collection(listingsCollection).FindOne(ctx, bson.M{"_id": msg.ListingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding parent listing %s: %w", msg.ListingID.Hex(), err)
	}
	if listing.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return &msg, nil
}

// Reply sets the owner's reply text and marks the message processed in
// a single update. There is no reverse transition.
func (s *messageService) Reply(ctx context.Context, messageID, ownerID primitive.ObjectID, reply string) (*models.Message, error) {
	if _, err := s.findOwnedMessage(ctx, messageID, ownerID); err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"reply":  reply,
		"status": models.MessageStatusProcessed,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Message
	err := s.db.Collection(messagesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": messageID}, update, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to record reply on message %s: %w", messageID.Hex(), err)
	}
	return &updated, nil
}

// Delete removes a message after the parent-listing ownership check.
func (s *messageService) Delete(ctx context.Context, messageID, ownerID primitive.ObjectID) error {
	if _, err := s.findOwnedMessage(ctx, messageID, ownerID); err != nil {
		return err
	}

	result, err := s.db.Collection(messagesCollection).DeleteOne(ctx, bson.M{"_id": messageID})
	if err != nil {
		return fmt.Errorf("db error deleting message %s: %w", messageID.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
