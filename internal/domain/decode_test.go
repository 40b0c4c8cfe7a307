package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidate_UnmarshalJSON(t *testing.T) {
	price := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		input string
		want  Candidate
	}{
		{
			name:  "numeric string price",
			input: `{"name": "EMAX RS2205", "price": "12.99"}`,
			want:  Candidate{Name: "EMAX RS2205", Price: price(12.99)},
		},
		{
			name:  "dollar prefixed price",
			input: `{"price": " $18.50 "}`,
			want:  Candidate{Price: price(18.5)},
		},
		{
			name:  "non-numeric price is null",
			input: `{"price": "about twenty dollars"}`,
			want:  Candidate{},
		},
		{
			name:  "single tag value becomes a list",
			input: `{"compatibilityTags": {"Voltage": "4S", "Size": ["5 inch", 6, ""], "Mount": null}}`,
			want: Candidate{ProposedCompatibilityTags: map[string][]string{
				"Voltage": {"4S"},
				"Size":    {"5 inch", "6"},
				"Mount":   nil,
			}},
		},
		{
			name:  "non-string text fields are stringified",
			input: `{"name": 2205, "category": "motors", "shortDescription": true, "fullDescription": null}`,
			want:  Candidate{Name: "2205", Category: "motors", ShortDescription: "true"},
		},
		{
			name:  "link price as string and bare URL links",
			input: `{"links": {"GetFPV": {"url": "https://getfpv.example", "price": "13.49"}, "Amazon": "https://a.example", "Broken": {"price": 3}}}`,
			want: Candidate{Links: map[string]Link{
				"GetFPV": {URL: "https://getfpv.example", Price: price(13.49)},
				"Amazon": {URL: "https://a.example"},
			}},
		},
		{
			name:  "mistyped containers are dropped",
			input: `{"name": "X", "compatibilityTags": ["4S"], "specifications": "light", "links": 3, "image": ""}`,
			want:  Candidate{Name: "X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Candidate
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects non-object documents", func(t *testing.T) {
		for _, input := range []string{`[]`, `42`, `"text"`, `{"name": `} {
			var got Candidate
			assert.Error(t, json.Unmarshal([]byte(input), &got), input)
		}
	})
}

func TestLink_UnmarshalJSON(t *testing.T) {
	var link Link
	require.NoError(t, json.Unmarshal([]byte(`{"url": "https://x.example", "price": "n/a"}`), &link))
	assert.Equal(t, Link{URL: "https://x.example"}, link)
}
