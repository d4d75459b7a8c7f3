package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locmaison/backend/internal/auth"
	"locmaison/backend/internal/db"
	"locmaison/backend/internal/models"
	"locmaison/backend/internal/storage"
)

// ErrEmailExists is returned when an attempt is made to use an email that already exists.
var ErrEmailExists = errors.New("email already in use by another account")

// ErrInvalidCredentials is returned on login failure. One error for both
// unknown email and wrong password, so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// ErrNotOwner is returned when an authenticated owner attempts to mutate
// a resource owned by someone else.
var ErrNotOwner = errors.New("resource does not belong to this owner")

// OwnerProfileUpdate describes a partial profile change. Nil fields are
// left untouched.
type OwnerProfileUpdate struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
}

// IOwnerService defines the interface for owner account operations.
type IOwnerService interface {
	Register(ctx context.Context, name, email, phone, password string) (*models.Owner, error)
	Authenticate(ctx context.Context, email, password string) (*models.Owner, error)
	FindByID(ctx context.Context, ownerID primitive.ObjectID) (*models.Owner, error)
	FindByEmail(ctx context.Context, email string) (*models.Owner, error)
	UpdateProfile(ctx context.Context, ownerID primitive.ObjectID, update OwnerProfileUpdate) (*models.Owner, error)
	DeleteOwnerAndListings(ctx context.Context, ownerID primitive.ObjectID) error
}

const ownersCollection = "owners"

// ownerService implements IOwnerService.
type ownerService struct {
	db    *mongo.Database
	media storage.IMediaStorage
}

// NewOwnerService creates a new OwnerService.
func NewOwnerService(db *mongo.Database, media storage.IMediaStorage) IOwnerService {
	return &ownerService{db: db, media: media}
}

// Register creates a new owner account with a hashed secret.
// Returns ErrEmailExists if the normalized email is already taken.
func (s *ownerService) Register(ctx context.Context, name, email, phone, password string) (*models.Owner, error) {
	collection := s.db.Collection(ownersCollection)

	owner, err := models.NewOwner(name, email, phone, password)
	if err != nil {
		return nil, fmt.Errorf("failed to build owner record: %w", err)
	}

	// Pre-check gives the common case a clean error; the unique index
	// still backstops concurrent registrations.
	count, err := collection.CountDocuments(ctx, bson.M{"email": owner.Email})
	if err != nil {
		return nil, fmt.Errorf("error checking email uniqueness for %s: %w", owner.Email, err)
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	_, err = collection.InsertOne(ctx, owner)
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error inserting new owner %s: %w", owner.Email, err)
	}

	return owner, nil
}

// Authenticate verifies an email/password pair and returns the owner.
func (s *ownerService) Authenticate(ctx context.Context, email, password string) (*models.Owner, error) {
	owner, err := s.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(password, owner.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return owner, nil
}

// FindByEmail finds an owner by their normalized email address.
// Returns mongo.ErrNoDocuments if not found.
func (s *ownerService) FindByEmail(ctx context.Context, email string) (*models.Owner, error) {
	var owner models.Owner
	collection := s.db.Collection(ownersCollection)

	err := collection.FindOne(ctx, bson.M{"email": email}).Decode(&owner)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding owner by email %s: %w", email, err)
	}
	return &owner, nil
}

// FindByID finds an owner by their ID.
func (s *ownerService) FindByID(ctx context.Context, ownerID primitive.ObjectID) (*models.Owner, error) {
	var owner models.Owner
	collection := s.db.Collection(ownersCollection)

	err := collection.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&owner)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding owner by ID %s: %w", ownerID.Hex(), err)
	}
	return &owner, nil
}

// UpdateProfile applies a partial update to an owner account. An email
// change is re-checked for uniqueness; a password change is re-hashed.
func (s *ownerService) UpdateProfile(ctx context.Context, ownerID primitive.ObjectID, update OwnerProfileUpdate) (*models.Owner, error) {
	collection := s.db.Collection(ownersCollection)

	set := bson.M{}
	if update.Name != nil && strings.TrimSpace(*update.Name) != "" {
		set["name"] = strings.TrimSpace(*update.Name)
	}
	if update.Phone != nil && strings.TrimSpace(*update.Phone) != "" {
		set["phone"] = strings.TrimSpace(*update.Phone)
	}
	if update.Email != nil {
		newEmail := models.NormalizeEmail(*update.Email)
		if newEmail != "" {
			existing, err := s.FindByEmail(ctx, newEmail)
			if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, err
			}
			if existing != nil && existing.ID != ownerID {
				return nil, ErrEmailExists
			}
			set["email"] = newEmail
		}
	}
	if update.Password != nil && *update.Password != "" {
		hash, err := auth.HashPassword(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash new password for owner %s: %w", ownerID.Hex(), err)
		}
		set["password"] = hash
	}
	if len(set) == 0 {
		// Nothing to change; return the current record.
		return s.FindByID(ctx, ownerID)
	}
	set["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Owner
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": ownerID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to update owner %s: %w", ownerID.Hex(), err)
	}
	return &updated, nil
}

// DeleteOwnerAndListings deletes an owner account, every listing that
// owner holds, and each listing's media files. Messages referencing the
// removed listings are retained. File removal failures are tolerated.
func (s *ownerService) DeleteOwnerAndListings(ctx context.Context, ownerID primitive.ObjectID) error {
	listingColl := s.db.Collection(listingsCollection)

	cursor, err := listingColl.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("db error fetching listings for owner %s: %w", ownerID.Hex(), err)
	}
	var listings []models.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return fmt.Errorf("db error decoding listings for owner %s: %w", ownerID.Hex(), err)
	}

	for _, l := range listings {
		for _, img := range l.Images {
			s.media.Remove(img)
		}
	}

	if _, err = listingColl.DeleteMany(ctx, bson.M{"owner_id": ownerID}); err != nil {
		return fmt.Errorf("db error deleting listings for owner %s: %w", ownerID.Hex(), err)
	}

	result, err := s.db.Collection(ownersCollection).DeleteOne(ctx, bson.M{"_id": ownerID})
	if err != nil {
		return fmt.Errorf("db error deleting owner %s: %w", ownerID.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
