package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

func TestMongoRepository_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	price := 12.99
	record := &domain.ProductRecord{
		Name:                       "EMAX RS2205",
		Category:                   "motors",
		Price:                      &price,
		ConfirmedCompatibilityTags: map[string][]string{"Voltage": {"4S"}},
	}

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewMongoRepository(mt.DB)
		id, err := repo.Insert(context.Background(), record, "motors")
		require.NoError(mt, err)

		_, err = primitive.ObjectIDFromHex(id)
		assert.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
		assert.Equal(mt, "motors", started.Command.Lookup("insert").StringValue())

		docs := started.Command.Lookup("documents").Array()
		values, err := docs.Values()
		require.NoError(mt, err)
		require.Len(mt, values, 1)

		var stored bson.M
		require.NoError(mt, bson.Unmarshal(values[0].Document(), &stored))
		assert.Equal(mt, "EMAX RS2205", stored["name"])
		assert.Equal(mt, 12.99, stored["price"])
		assert.Nil(mt, stored["image"])
		assert.Contains(mt, stored, "compatibilityTags")
		assert.Contains(mt, stored, "_id")
	})

	mt.Run("write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		repo := NewMongoRepository(mt.DB)
		_, err := repo.Insert(context.Background(), record, "motors")
		require.Error(mt, err)
		assert.True(mt, mongo.IsDuplicateKeyError(err))
	})

	mt.Run("invalid input", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		_, err := repo.Insert(context.Background(), nil, "motors")
		assert.ErrorIs(mt, err, domain.ErrInvalidRequest)
	})
}
