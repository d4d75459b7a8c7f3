package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GroupCount is one bucket of a grouped listing count.
type GroupCount struct {
	Value string `bson:"_id" json:"value"`
	Total int64  `bson:"total" json:"total"`
}

// Stats is the public aggregate report.
type Stats struct {
	Listings   int64        `json:"listings"`
	Messages   int64        `json:"messages"`
	ByLocation []GroupCount `json:"by_location"`
	ByCategory []GroupCount `json:"by_type"`
}

// IStatsService defines the interface for the statistics aggregator.
type IStatsService interface {
	GetStats(ctx context.Context) (*Stats, error)
}

// statsService implements IStatsService.
type statsService struct {
	db *mongo.Database
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *mongo.Database) IStatsService {
	return &statsService{db: db}
}

// groupBy counts listings grouped by one field, descending by count.
func (s *statsService) groupBy(ctx context.Context, field string) ([]GroupCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "total": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"total": -1}}},
	}
	cursor, err := s.db.Collection(listingsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate listings by %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	results := []GroupCount{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode %s aggregation: %w", field, err)
	}
	return results, nil
}

// GetStats reports total listing and message counts plus listings
// grouped by location and category. Empty collections count as zero.
func (s *statsService) GetStats(ctx context.Context) (*Stats, error) {
	listings, err := s.db.Collection(listingsCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}
	messages, err := s.db.Collection(messagesCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	byLocation, err := s.groupBy(ctx, "location")
	if err != nil {
		return nil, err
	}
	byCategory, err := s.groupBy(ctx, "type")
	if err != nil {
		return nil, err
	}

	return &Stats{
		Listings:   listings,
		Messages:   messages,
		ByLocation: byLocation,
		ByCategory: byCategory,
	}, nil
}
