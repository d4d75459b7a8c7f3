package services

import (
	"context"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"locmaison/backend/internal/models"
	"locmaison/backend/internal/utils"
)

func setupTestDB(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName, "owners", "listings", "messages")
}

// fakeMediaStorage records removals instead of touching disk.
type fakeMediaStorage struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeMediaStorage) Save(file *multipart.FileHeader) (string, error) {
	return file.Filename, nil
}

func (f *fakeMediaStorage) Remove(filename string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, filename)
}

func (f *fakeMediaStorage) Path(filename string) string {
	return filename
}

func (f *fakeMediaStorage) Removed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func createTestOwner(t *testing.T, db *mongo.Database, email string) *models.Owner {
	owner, err := models.NewOwner("Test Owner", email, "0612345678", "password123")
	require.NoError(t, err)
	_, err = db.Collection("owners").InsertOne(context.Background(), owner)
	require.NoError(t, err)
	return owner
}

func createTestListing(t *testing.T, svc IListingService, ownerID primitive.ObjectID, title, location, category string, images ...string) *models.Listing {
	listing, err := svc.Create(context.Background(), ownerID, ListingInput{
		Title:    title,
		Location: location,
		Category: category,
		Price:    500,
		Images:   images,
	})
	require.NoError(t, err)
	return listing
}
