package usecase

import (
	"fmt"
	"strings"
	"sync"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// SchemaRegistry holds the compatibility schema of every catalog category.
// Schemas only grow: values can be appended, nothing can be removed.
type SchemaRegistry struct {
	mu      sync.RWMutex
	order   []string
	schemas map[string]domain.CategorySchema
}

// NewSchemaRegistry creates a registry preloaded with the given schemas
func NewSchemaRegistry(schemas ...domain.CategorySchema) (*SchemaRegistry, error) {
	r := &SchemaRegistry{
		schemas: make(map[string]domain.CategorySchema),
	}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a new category schema
func (r *SchemaRegistry) Register(schema domain.CategorySchema) error {
	if strings.TrimSpace(schema.Category) == "" {
		return fmt.Errorf("%w: category name is empty", domain.ErrInvalidRequest)
	}

	// Collapse duplicate attribute names and values, keeping first occurrence order
	clean := domain.CategorySchema{Category: schema.Category}
	index := make(map[string]int)
	for _, attr := range schema.Attributes {
		i, seen := index[attr.Name]
		if !seen {
			i = len(clean.Attributes)
			index[attr.Name] = i
			clean.Attributes = append(clean.Attributes, domain.Attribute{Name: attr.Name})
		}
		for _, v := range attr.Values {
			clean.Attributes[i].Values = appendUnique(clean.Attributes[i].Values, v)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Category]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateCategory, schema.Category)
	}
	r.schemas[schema.Category] = clean
	r.order = append(r.order, schema.Category)
	return nil
}

// Get returns a snapshot of the category schema
func (r *SchemaRegistry) Get(category string) (domain.CategorySchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, ok := r.schemas[category]
	if !ok {
		return domain.CategorySchema{}, fmt.Errorf("%w: %s", domain.ErrUnknownCategory, category)
	}
	return schema.Clone(), nil
}

// Categories returns the registered category names in registration order
func (r *SchemaRegistry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// AddAllowedValue appends value to an attribute's allowed values.
// Adding a value that is already present is a no-op.
func (r *SchemaRegistry) AddAllowedValue(category, attribute, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: value is empty", domain.ErrInvalidRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	schema, ok := r.schemas[category]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCategory, category)
	}

	for i, attr := range schema.Attributes {
		if attr.Name != attribute {
			continue
		}
		for _, v := range attr.Values {
			if v == value {
				return nil
			}
		}

		// Copy on write: snapshots handed out by Get never alias these slices,
		// and the stored schema is swapped as a whole.
		updated := schema.Clone()
		updated.Attributes[i].Values = append(updated.Attributes[i].Values, value)
		r.schemas[category] = updated
		return nil
	}

	return fmt.Errorf("%w: %s in %s", domain.ErrUnknownAttribute, attribute, category)
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
