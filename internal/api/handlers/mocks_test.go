package handlers_test

import (
	"context"
	"mime/multipart"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"locmaison/backend/internal/models"
	"locmaison/backend/internal/services"
)

// --- Mocks ---

// MockOwnerService
type MockOwnerService struct {
	mock.Mock
}

func (m *MockOwnerService) Register(ctx context.Context, name, email, phone, password string) (*models.Owner, error) {
	args := m.Called(ctx, name, email, phone, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockOwnerService) Authenticate(ctx context.Context, email, password string) (*models.Owner, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockOwnerService) FindByID(ctx context.Context, ownerID primitive.ObjectID) (*models.Owner, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockOwnerService) FindByEmail(ctx context.Context, email string) (*models.Owner, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockOwnerService) UpdateProfile(ctx context.Context, ownerID primitive.ObjectID, update services.OwnerProfileUpdate) (*models.Owner, error) {
	args := m.Called(ctx, ownerID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockOwnerService) DeleteOwnerAndListings(ctx context.Context, ownerID primitive.ObjectID) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// MockListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) Search(ctx context.Context, filter services.ListingFilter) ([]models.ListingWithOwner, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ListingWithOwner), args.Error(1)
}

func (m *MockListingService) FindByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingService) FindByID(ctx context.Context, listingID primitive.ObjectID) (*models.ListingWithOwner, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ListingWithOwner), args.Error(1)
}

func (m *MockListingService) Create(ctx context.Context, ownerID primitive.ObjectID, in services.ListingInput) (*models.Listing, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) Update(ctx context.Context, listingID, ownerID primitive.ObjectID, patch services.ListingPatch) (*models.Listing, error) {
	args := m.Called(ctx, listingID, ownerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, listingID, ownerID primitive.ObjectID) error {
	args := m.Called(ctx, listingID, ownerID)
	return args.Error(0)
}

// MockMessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) CreateFromClient(ctx context.Context, listingID primitive.ObjectID, name, email, phone, body string) (*models.Message, error) {
	args := m.Called(ctx, listingID, name, email, phone, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) Send(ctx context.Context, listingID primitive.ObjectID, email, body, from, name string) (*models.Message, error) {
	args := m.Called(ctx, listingID, email, body, from, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) ListForOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.MessageWithListing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MessageWithListing), args.Error(1)
}

func (m *MockMessageService) ThreadForClient(ctx context.Context, email string) ([]models.MessageWithListing, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MessageWithListing), args.Error(1)
}

func (m *MockMessageService) Reply(ctx context.Context, messageID, ownerID primitive.ObjectID, reply string) (*models.Message, error) {
	args := m.Called(ctx, messageID, ownerID, reply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) Delete(ctx context.Context, messageID, ownerID primitive.ObjectID) error {
	args := m.Called(ctx, messageID, ownerID)
	return args.Error(0)
}

// MockStatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetStats(ctx context.Context) (*services.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Stats), args.Error(1)
}

// noopMediaStorage keeps uploads off the disk in handler tests.
type noopMediaStorage struct{}

func (noopMediaStorage) Save(file *multipart.FileHeader) (string, error) {
	return "stored-" + file.Filename, nil
}
func (noopMediaStorage) Remove(string) {}

func (noopMediaStorage) Path(s string) string { return s }
