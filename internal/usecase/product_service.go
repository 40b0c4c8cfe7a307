package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// ProductService reconciles reviewed candidates and hands them to persistence
type ProductService struct {
	schemas    domain.SchemaProvider
	repository domain.ProductRepository
	log        *logrus.Entry
}

// NewProductService creates a new product service with dependencies
func NewProductService(schemas domain.SchemaProvider, repository domain.ProductRepository) *ProductService {
	return &ProductService{
		schemas:    schemas,
		repository: repository,
		log:        logrus.WithField("component", "products"),
	}
}

// Submit checks the user's selections against the category schema, reconciles the
// candidate and inserts the final record. It returns the record and its new ID.
func (s *ProductService) Submit(ctx context.Context, request *domain.SubmitRequest) (*domain.ProductRecord, string, error) {
	if request == nil || strings.TrimSpace(request.Category) == "" || request.Candidate == nil {
		return nil, "", domain.ErrInvalidRequest
	}

	schema, err := s.schemas.Get(request.Category)
	if err != nil {
		return nil, "", err
	}

	if err := checkSelections(schema, request.CompatibilitySelections); err != nil {
		return nil, "", err
	}

	record := Reconcile(request.Candidate, request.CompatibilitySelections, request.ImageURL, request.Links)
	// the model's category label is free text; the record belongs to the requested category
	record.Category = schema.Category

	id, err := s.repository.Insert(ctx, record, request.Category)
	if err != nil {
		return nil, "", fmt.Errorf("failed to persist product: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"category": request.Category,
		"product":  record.Name,
		"id":       id,
	}).Info("product inserted")

	return record, id, nil
}

// checkSelections verifies every selected value belongs to its attribute's allowed set
func checkSelections(schema domain.CategorySchema, selections map[string][]string) error {
	for attribute, values := range selections {
		if _, ok := schema.Attribute(attribute); !ok {
			return fmt.Errorf("%w: attribute %q is not part of %s", domain.ErrInvalidSelection, attribute, schema.Category)
		}
		for _, v := range values {
			if !schema.AllowsValue(attribute, v) {
				return fmt.Errorf("%w: %q is not an allowed %s value", domain.ErrInvalidSelection, v, attribute)
			}
		}
	}
	return nil
}
