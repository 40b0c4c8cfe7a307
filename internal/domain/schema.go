package domain

// Attribute is one compatibility dimension of a category, e.g. "Voltage" for motors
type Attribute struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// CategorySchema is the ordered attribute list of a catalog category
type CategorySchema struct {
	Category   string      `json:"category"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute returns the named attribute and whether it exists
func (s CategorySchema) Attribute(name string) (Attribute, bool) {
	for _, attr := range s.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// AllowsValue reports whether value is an allowed value of the named attribute
func (s CategorySchema) AllowsValue(attribute, value string) bool {
	attr, ok := s.Attribute(attribute)
	if !ok {
		return false
	}
	for _, v := range attr.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the schema
func (s CategorySchema) Clone() CategorySchema {
	out := CategorySchema{
		Category:   s.Category,
		Attributes: make([]Attribute, len(s.Attributes)),
	}
	for i, attr := range s.Attributes {
		values := make([]string, len(attr.Values))
		copy(values, attr.Values)
		out.Attributes[i] = Attribute{Name: attr.Name, Values: values}
	}
	return out
}
