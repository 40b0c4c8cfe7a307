package usecase

import (
	"strings"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// Reconcile merges a validated candidate with the user's curated fields into the
// final record. Compatibility tags come only from selections: whatever the model
// proposed is dropped. Attributes with no selected value are omitted.
func Reconcile(
	candidate *domain.Candidate,
	selections map[string][]string,
	imageURL string,
	links []domain.LinkInput,
) *domain.ProductRecord {
	if candidate == nil {
		candidate = &domain.Candidate{}
	}

	record := &domain.ProductRecord{
		Name:                       candidate.Name,
		Category:                   candidate.Category,
		ShortDescription:           candidate.ShortDescription,
		FullDescription:            candidate.FullDescription,
		Price:                      candidate.Price,
		Specifications:             candidate.Specifications,
		ConfirmedCompatibilityTags: make(map[string][]string),
	}

	for attribute, values := range selections {
		if len(values) == 0 {
			continue
		}
		record.ConfirmedCompatibilityTags[attribute] = append([]string(nil), values...)
	}

	if url := strings.TrimSpace(imageURL); url != "" {
		record.Image = &url
	}

	for _, link := range links {
		name := strings.TrimSpace(link.Name)
		url := strings.TrimSpace(link.URL)
		if name == "" || url == "" {
			continue
		}
		if record.Links == nil {
			record.Links = make(map[string]domain.Link)
		}
		record.Links[name] = domain.Link{URL: url, Price: link.Price}
	}

	return record
}
