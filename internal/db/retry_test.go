package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestWithRetries_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := WithRetries(func() error {
		calls++
		return nil
	}, DefaultMaxRetries, IsMongoDuplicateKeyError)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetries_RetriesOnDuplicateKey(t *testing.T) {
	dupErr := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}},
	}

	calls := 0
	err := WithRetries(func() error {
		calls++
		if calls < 3 {
			return dupErr
		}
		return nil
	}, DefaultMaxRetries, IsMongoDuplicateKeyError)
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetries_GivesUpAfterMaxRetries(t *testing.T) {
	dupErr := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}},
	}

	calls := 0
	err := WithRetries(func() error {
		calls++
		return dupErr
	}, 2, IsMongoDuplicateKeyError)
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetries_OtherErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithRetries(func() error {
		calls++
		return boom
	}, DefaultMaxRetries, IsMongoDuplicateKeyError)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

// A closure that constructs its document per attempt must observe a
// fresh ID on every retry; retrying a byte-identical document would
// hit the same collision forever.
func TestWithRetries_ClosureRebuildsPerAttempt(t *testing.T) {
	dupErr := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}},
	}

	var ids []primitive.ObjectID
	err := WithRetries(func() error {
		id := primitive.NewObjectID()
		ids = append(ids, id)
		if len(ids) < 3 {
			return dupErr
		}
		return nil
	}, DefaultMaxRetries, IsMongoDuplicateKeyError)
	assert.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
}

func TestIsMongoDuplicateKeyError(t *testing.T) {
	assert.True(t, IsMongoDuplicateKeyError(mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000}},
	}))
	assert.False(t, IsMongoDuplicateKeyError(mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 121}},
	}))
	// FindOneAndUpdate surfaces unique-index violations command-shaped
	assert.True(t, IsMongoDuplicateKeyError(mongo.CommandError{Code: 11000}))
	assert.False(t, IsMongoDuplicateKeyError(mongo.CommandError{Code: 121}))
	assert.False(t, IsMongoDuplicateKeyError(errors.New("plain error")))
	assert.False(t, IsMongoDuplicateKeyError(nil))
}
