package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locmaison/backend/internal/db"
	"locmaison/backend/internal/models"
	"locmaison/backend/internal/storage"
)

// ErrInvalidCategory is returned when a listing category is outside the fixed set.
var ErrInvalidCategory = errors.New("invalid listing category")

// ErrNegativePrice is returned when a listing price is below zero.
var ErrNegativePrice = errors.New("price must not be negative")

// ListingFilter narrows the public listing search.
type ListingFilter struct {
	Location *string // case-insensitive substring match
	Category *string // exact match
}

// ListingInput carries the fields for creating a listing. Images are
// the stored filenames of already-saved uploads, in upload order.
type ListingInput struct {
	Title       string
	Location    string
	Category    string
	Price       float64
	Description string
	Images      []string
}

// ListingPatch describes a partial listing update. Nil fields keep
// their current value; a non-nil empty Description clears it.
type ListingPatch struct {
	Title        *string
	Location     *string
	Category     *string
	Price        *float64
	Description  *string
	RemoveImages []string // filenames to drop from the array and from disk
	AddImages    []string // stored filenames of new uploads, appended after removals
}

// IListingService defines the interface for listing operations.
type IListingService interface {
	Search(ctx context.Context, filter ListingFilter) ([]models.ListingWithOwner, error)
	FindByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Listing, error)
	FindByID(ctx context.Context, listingID primitive.ObjectID) (*models.ListingWithOwner, error)
	Create(ctx context.Context, ownerID primitive.ObjectID, in ListingInput) (*models.Listing, error)
	Update(ctx context.Context, listingID, ownerID primitive.ObjectID, patch ListingPatch) (*models.Listing, error)
	Delete(ctx context.Context, listingID, ownerID primitive.ObjectID) error
}

const listingsCollection = "listings"

// listingService implements IListingService.
type listingService struct {
	db    *mongo.Database
	media storage.IMediaStorage
}

// NewListingService creates a new ListingService.
func NewListingService(db *mongo.Database, media storage.IMediaStorage) IListingService {
	return &listingService{db: db, media: media}
}

// Search returns all listings matching the filter, each joined with its
// owner's public details. Images are never nil in the result.
func (s *listingService) Search(ctx context.Context, filter ListingFilter) ([]models.ListingWithOwner, error) {
	collection := s.db.Collection(listingsCollection)

	query := bson.M{}
	if filter.Location != nil && *filter.Location != "" {
		query["location"] = bson.M{"$regex": regexp.QuoteMeta(*filter.Location), "$options": "i"}
	}
	if filter.Category != nil && *filter.Category != "" {
		query["type"] = *filter.Category
	}

	cursor, err := collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to execute listing search query: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listing search results: %w", err)
	}

	return s.joinOwners(ctx, listings)
}

// joinOwners attaches each listing's owner name/email, caching owner
// lookups across the result set.
func (s *listingService) joinOwners(ctx context.Context, listings []models.Listing) ([]models.ListingWithOwner, error) {
	ownerColl := s.db.Collection(ownersCollection)
	owners := make(map[primitive.ObjectID]*models.OwnerSummary)

	results := make([]models.ListingWithOwner, 0, len(listings))
	for _, l := range listings {
		if l.Images == nil {
			l.Images = []string{}
		}
		summary, seen := owners[l.OwnerID]
		if !seen {
			var owner models.Owner
			err := ownerColl.FindOne(ctx, bson.M{"_id": l.OwnerID}).Decode(&owner)
			if err == nil {
				summary = &models.OwnerSummary{ID: owner.ID.Hex(), Name: owner.Name, Email: owner.Email}
			} else if !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, fmt.Errorf("error joining owner %s: %w", l.OwnerID.Hex(), err)
			}
			owners[l.OwnerID] = summary
		}
		results = append(results, models.ListingWithOwner{Listing: l, Owner: summary})
	}
	return results, nil
}

// FindByOwner returns all listings belonging to one owner, newest first.
func (s *listingService) FindByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Listing, error) {
	collection := s.db.Collection(listingsCollection)

	cursor, err := collection.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query listings for owner %s: %w", ownerID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings for owner %s: %w", ownerID.Hex(), err)
	}
	for i := range listings {
		if listings[i].Images == nil {
			listings[i].Images = []string{}
		}
	}
	return listings, nil
}

// FindByID returns one listing with its owner joined in.
// Returns mongo.ErrNoDocuments if absent.
func (s *listingService) FindByID(ctx context.Context, listingID primitive.ObjectID) (*models.ListingWithOwner, error) {
	var listing models.Listing
	collection := s.db.Collection(listingsCollection)

	err := collection.FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding listing by ID %s: %w", listingID.Hex(), err)
	}

	joined, err := s.joinOwners(ctx, []models.Listing{listing})
	if err != nil {
		return nil, err
	}
	return &joined[0], nil
}

// Create inserts a new listing for the given owner. The owner reference
// is validated against the credential store at creation time only.
func (s *listingService) Create(ctx context.Context, ownerID primitive.ObjectID, in ListingInput) (*models.Listing, error) {
	if !models.ValidCategory(in.Category) {
		return nil, ErrInvalidCategory
	}
	if in.Price < 0 {
		return nil, ErrNegativePrice
	}

	ownerCount, err := s.db.Collection(ownersCollection).CountDocuments(ctx, bson.M{"_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("error verifying owner %s: %w", ownerID.Hex(), err)
	}
	if ownerCount == 0 {
		return nil, mongo.ErrNoDocuments
	}

	collection := s.db.Collection(listingsCollection)

	images := in.Images
	if images == nil {
		images = []string{}
	}

	// Built inside the closure so a duplicate-key retry gets a fresh ID.
	var newListing *models.Listing
	operation := func() error {
		now := time.Now().UTC()
		newListing = &models.Listing{
			ID:          primitive.NewObjectID(),
			OwnerID:     ownerID,
			Title:       in.Title,
			Location:    in.Location,
			Category:    models.Category(in.Category),
			Price:       in.Price,
			Description: in.Description,
			Images:      images,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		_, insertErr := collection.InsertOne(ctx, newListing)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert new listing for owner %s: %w", ownerID.Hex(), err)
	}

	return newListing, nil
}

// findOwned fetches a listing and applies the ownership guard. Lookup
// precedes the owner comparison: a missing listing is mongo.ErrNoDocuments
// regardless of who asks.
func (s *listingService) findOwned(ctx context.Context, listingID, ownerID primitive.ObjectID) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(listingsCollection).FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding listing %s: %w", listingID.Hex(), err)
	}
	if listing.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return &listing, nil
}

// Update applies a partial update to a listing the caller owns.
// Removed media files are deleted from disk after the record update;
// file errors never abort the operation.
func (s *listingService) Update(ctx context.Context, listingID, ownerID primitive.ObjectID, patch ListingPatch) (*models.Listing, error) {
	listing, err := s.findOwned(ctx, listingID, ownerID)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.Title != nil && *patch.Title != "" {
		set["title"] = *patch.Title
	}
	if patch.Location != nil && *patch.Location != "" {
		set["location"] = *patch.Location
	}
	if patch.Category != nil {
		if !models.ValidCategory(*patch.Category) {
			return nil, ErrInvalidCategory
		}
		set["type"] = *patch.Category
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, ErrNegativePrice
		}
		set["price"] = *patch.Price
	}
	if patch.Description != nil {
		// Presence-based: an explicitly submitted empty description clears it.
		set["description"] = *patch.Description
	}

	var removed []string
	if len(patch.RemoveImages) > 0 || len(patch.AddImages) > 0 {
		toRemove := make(map[string]bool, len(patch.RemoveImages))
		for _, name := range patch.RemoveImages {
			toRemove[name] = true
		}
		images := make([]string, 0, len(listing.Images)+len(patch.AddImages))
		for _, img := range listing.Images {
			if toRemove[img] {
				removed = append(removed, img)
			} else {
				images = append(images, img)
			}
		}
		images = append(images, patch.AddImages...)
		set["images"] = images
	}

	set["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Listing
	err = s.db.Collection(listingsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": listingID, "owner_id": ownerID}, bson.M{"$set": set}, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update listing %s: %w", listingID.Hex(), err)
	}

	for _, img := range removed {
		s.media.Remove(img)
	}

	return &updated, nil
}

// Delete removes a listing the caller owns together with its media files.
func (s *listingService) Delete(ctx context.Context, listingID, ownerID primitive.ObjectID) error {
	listing, err := s.findOwned(ctx, listingID, ownerID)
	if err != nil {
		return err
	}

	for _, img := range listing.Images {
		s.media.Remove(img)
	}

	result, err := s.db.Collection(listingsCollection).DeleteOne(ctx, bson.M{"_id": listingID, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("db error deleting listing %s: %w", listingID.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
