package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Candidate is a product record as proposed by the completion service.
// Nothing in it is authoritative until it has been reconciled with user selections.
type Candidate struct {
	Name             string         `json:"name"`
	Category         string         `json:"category"`
	ShortDescription string         `json:"shortDescription"`
	FullDescription  string         `json:"fullDescription"`
	Price            *float64       `json:"price"`
	Image            *string        `json:"image"`
	Specifications   Specifications `json:"specifications"`
	// ProposedCompatibilityTags are suggestions surfaced for human confirmation only
	ProposedCompatibilityTags map[string][]string `json:"compatibilityTags"`
	Links                     map[string]Link     `json:"links"`
}

// ProductRecord is the final catalog record handed to persistence
type ProductRecord struct {
	Name             string         `json:"name" bson:"name"`
	Category         string         `json:"category" bson:"category"`
	ShortDescription string         `json:"shortDescription" bson:"shortDescription"`
	FullDescription  string         `json:"fullDescription" bson:"fullDescription"`
	Price            *float64       `json:"price" bson:"price"`
	Image            *string        `json:"image" bson:"image"`
	Specifications   Specifications `json:"specifications" bson:"specifications"`
	// ConfirmedCompatibilityTags come exclusively from user selections
	ConfirmedCompatibilityTags map[string][]string `json:"compatibilityTags" bson:"compatibilityTags"`
	Links                      map[string]Link     `json:"links" bson:"links"`
}

// Link is a named store listing of a product
type Link struct {
	URL   string   `json:"url" bson:"url"`
	Price *float64 `json:"price" bson:"price"`
}

// UnmarshalJSON accepts both {"url": ..., "price": ...} and a bare URL string.
// A price given as a numeric string is converted; any other non-number is nil.
func (l *Link) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		*l = Link{URL: url}
		return nil
	}
	var raw struct {
		URL   json.RawMessage `json:"url"`
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Link{URL: looseString(raw.URL), Price: looseNumber(raw.Price)}
	return nil
}

// LinkInput is one user-curated link row
type LinkInput struct {
	Name  string   `json:"name"`
	URL   string   `json:"url"`
	Price *float64 `json:"price,omitempty"`
}

// Specifications maps a specification name to its value
type Specifications map[string]string

// UnmarshalJSON keeps string values, stringifies other scalars and drops nulls.
// Models routinely answer {"Weight": 28.5} where a string is expected.
func (s *Specifications) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Specifications, len(raw))
	for key, value := range raw {
		value = bytes.TrimSpace(value)
		switch {
		case bytes.Equal(value, []byte("null")):
			continue
		case len(value) > 0 && value[0] == '"':
			var str string
			if err := json.Unmarshal(value, &str); err != nil {
				return err
			}
			out[key] = str
		default:
			var compact bytes.Buffer
			if err := json.Compact(&compact, value); err != nil {
				return err
			}
			out[key] = strings.TrimSpace(compact.String())
		}
	}
	*s = out
	return nil
}

// RetrievalResult is either Structured or Unstructured
type RetrievalResult interface {
	retrievalResult()
}

// Structured is a retrieval whose answer parsed as a candidate record
type Structured struct {
	Candidate *Candidate
}

// Unstructured carries the extracted answer text when it did not parse.
// It is an expected outcome, not a fault.
type Unstructured struct {
	Text string
}

func (Structured) retrievalResult()   {}
func (Unstructured) retrievalResult() {}

// AcquisitionRequest asks for a product to be retrieved and validated
type AcquisitionRequest struct {
	Category        string `json:"category" binding:"required"`
	ProductName     string `json:"productName" binding:"required"`
	RetrievalModel  string `json:"retrievalModel,omitempty"`
	ValidationModel string `json:"validationModel,omitempty"`
}

// SubmitRequest carries a validated candidate and the user's curated fields
type SubmitRequest struct {
	Category                string              `json:"category" binding:"required"`
	Candidate               *Candidate          `json:"candidate" binding:"required"`
	CompatibilitySelections map[string][]string `json:"compatibilityTags"`
	ImageURL                string              `json:"image"`
	Links                   []LinkInput         `json:"links"`
}
