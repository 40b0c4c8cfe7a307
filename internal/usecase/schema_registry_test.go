package usecase

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

func TestSchemaRegistry_Get(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("returns registered schema", func(t *testing.T) {
		schema, err := r.Get("motors")
		require.NoError(t, err)
		assert.Equal(t, motorsSchema(), schema)
	})

	t.Run("fails for unknown category", func(t *testing.T) {
		_, err := r.Get("boats")
		assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	})

	t.Run("returned schema is a snapshot", func(t *testing.T) {
		schema, err := r.Get("motors")
		require.NoError(t, err)
		schema.Attributes[0].Values[0] = "mutated"
		schema.Attributes = append(schema.Attributes, domain.Attribute{Name: "Extra"})

		again, err := r.Get("motors")
		require.NoError(t, err)
		assert.Equal(t, motorsSchema(), again)
	})
}

func TestSchemaRegistry_AddAllowedValue(t *testing.T) {
	t.Run("appends new value and keeps existing ones", func(t *testing.T) {
		r := newTestRegistry(t)

		require.NoError(t, r.AddAllowedValue("motors", "Voltage", "7S"))

		schema, err := r.Get("motors")
		require.NoError(t, err)
		voltage, ok := schema.Attribute("Voltage")
		require.True(t, ok)
		assert.Equal(t, []string{"4S", "5S", "6S", "7S"}, voltage.Values)

		stator, _ := schema.Attribute("Stator Size")
		assert.Equal(t, []string{"2205", "2207"}, stator.Values)
	})

	t.Run("is idempotent", func(t *testing.T) {
		r := newTestRegistry(t)

		require.NoError(t, r.AddAllowedValue("motors", "Voltage", "4S"))
		require.NoError(t, r.AddAllowedValue("motors", "Voltage", "7S"))
		require.NoError(t, r.AddAllowedValue("motors", "Voltage", "7S"))

		schema, _ := r.Get("motors")
		voltage, _ := schema.Attribute("Voltage")
		assert.Equal(t, []string{"4S", "5S", "6S", "7S"}, voltage.Values)
	})

	t.Run("fails for unknown attribute", func(t *testing.T) {
		r := newTestRegistry(t)
		err := r.AddAllowedValue("motors", "Color", "Red")
		assert.ErrorIs(t, err, domain.ErrUnknownAttribute)
	})

	t.Run("fails for unknown category", func(t *testing.T) {
		r := newTestRegistry(t)
		err := r.AddAllowedValue("boats", "Voltage", "7S")
		assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	})

	t.Run("rejects blank value", func(t *testing.T) {
		r := newTestRegistry(t)
		err := r.AddAllowedValue("motors", "Voltage", "  ")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("earlier snapshots are not affected", func(t *testing.T) {
		r := newTestRegistry(t)
		before, _ := r.Get("motors")

		require.NoError(t, r.AddAllowedValue("motors", "Voltage", "7S"))

		voltage, _ := before.Attribute("Voltage")
		assert.Equal(t, []string{"4S", "5S", "6S"}, voltage.Values)
	})
}

func TestSchemaRegistry_Register(t *testing.T) {
	t.Run("keeps registration order", func(t *testing.T) {
		r, err := NewSchemaRegistry(
			domain.CategorySchema{Category: "frames"},
			domain.CategorySchema{Category: "motors"},
			domain.CategorySchema{Category: "batteries"},
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"frames", "motors", "batteries"}, r.Categories())
	})

	t.Run("rejects duplicate category", func(t *testing.T) {
		_, err := NewSchemaRegistry(motorsSchema(), motorsSchema())
		assert.ErrorIs(t, err, domain.ErrDuplicateCategory)
	})

	t.Run("rejects empty category name", func(t *testing.T) {
		_, err := NewSchemaRegistry(domain.CategorySchema{})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("collapses duplicate attributes and values", func(t *testing.T) {
		r, err := NewSchemaRegistry(domain.CategorySchema{
			Category: "batteries",
			Attributes: []domain.Attribute{
				{Name: "Voltage", Values: []string{"4S", "4S", "6S"}},
				{Name: "Connector", Values: []string{"XT60"}},
				{Name: "Voltage", Values: []string{"6S", "1S"}},
			},
		})
		require.NoError(t, err)

		schema, _ := r.Get("batteries")
		assert.Equal(t, []domain.Attribute{
			{Name: "Voltage", Values: []string{"4S", "6S", "1S"}},
			{Name: "Connector", Values: []string{"XT60"}},
		}, schema.Attributes)
	})
}

func TestSchemaRegistry_ConcurrentReadsDuringAppend(t *testing.T) {
	r := newTestRegistry(t)
	builder := NewPromptBuilder("")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.AddAllowedValue("motors", "Voltage", fmt.Sprintf("%dS", i+7))
		}(i)
		go func() {
			defer wg.Done()
			schema, err := r.Get("motors")
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			_ = builder.BuildRetrievalPrompt("motors", "EMAX RS2205", schema)
			voltage, _ := schema.Attribute("Voltage")
			if len(voltage.Values) < 3 || voltage.Values[0] != "4S" {
				t.Errorf("observed partial voltage list: %v", voltage.Values)
			}
		}()
	}
	wg.Wait()

	schema, _ := r.Get("motors")
	voltage, _ := schema.Attribute("Voltage")
	assert.Len(t, voltage.Values, 23)
}
