package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// UnmarshalJSON decodes a candidate leniently. Completion answers often carry
// prices as strings, single tag values without a list, or numbers where text is
// expected. Only a non-object document is an error; mistyped fields are coerced
// or dropped.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name              json.RawMessage `json:"name"`
		Category          json.RawMessage `json:"category"`
		ShortDescription  json.RawMessage `json:"shortDescription"`
		FullDescription   json.RawMessage `json:"fullDescription"`
		Price             json.RawMessage `json:"price"`
		Image             json.RawMessage `json:"image"`
		Specifications    json.RawMessage `json:"specifications"`
		CompatibilityTags json.RawMessage `json:"compatibilityTags"`
		Links             json.RawMessage `json:"links"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Candidate{
		Name:                      looseString(raw.Name),
		Category:                  looseString(raw.Category),
		ShortDescription:          looseString(raw.ShortDescription),
		FullDescription:           looseString(raw.FullDescription),
		Price:                     looseNumber(raw.Price),
		ProposedCompatibilityTags: looseTags(raw.CompatibilityTags),
	}

	if image := looseString(raw.Image); image != "" {
		out.Image = &image
	}

	if len(raw.Specifications) > 0 {
		var specs Specifications
		if err := json.Unmarshal(raw.Specifications, &specs); err == nil {
			out.Specifications = specs
		}
	}

	if len(raw.Links) > 0 {
		var links map[string]json.RawMessage
		if err := json.Unmarshal(raw.Links, &links); err == nil && links != nil {
			out.Links = make(map[string]Link, len(links))
			for name, value := range links {
				var link Link
				if err := json.Unmarshal(value, &link); err != nil || link.URL == "" {
					continue
				}
				out.Links[name] = link
			}
		}
	}

	*c = out
	return nil
}

// looseString returns strings as-is, compact JSON text for other values and ""
// for null or absent values
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return ""
	}
	return compact.String()
}

// looseNumber accepts JSON numbers and numeric strings such as "12.99" or "$12.99".
// Anything else is nil.
func looseNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
		text = strings.TrimPrefix(strings.TrimSpace(text), "$")
	} else {
		text = string(raw)
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil
	}
	return &f
}

// looseTags decodes attribute -> values, wrapping a single value in a list.
// A null value keeps its attribute with no values; empty strings are dropped.
func looseTags(raw json.RawMessage) map[string][]string {
	var byAttribute map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byAttribute); err != nil || byAttribute == nil {
		return nil
	}

	tags := make(map[string][]string, len(byAttribute))
	for attribute, value := range byAttribute {
		value = bytes.TrimSpace(value)
		switch {
		case bytes.Equal(value, []byte("null")):
			tags[attribute] = nil
		case len(value) > 0 && value[0] == '[':
			var items []json.RawMessage
			if err := json.Unmarshal(value, &items); err != nil {
				continue
			}
			values := make([]string, 0, len(items))
			for _, item := range items {
				if s := looseString(item); s != "" {
					values = append(values, s)
				}
			}
			tags[attribute] = values
		default:
			if s := looseString(value); s != "" {
				tags[attribute] = []string{s}
			} else {
				tags[attribute] = nil
			}
		}
	}
	return tags
}
