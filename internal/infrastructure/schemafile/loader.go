// Package schemafile reads category compatibility schemas from YAML.
//
// The document is a mapping of category to a mapping of attribute to a list of
// allowed values. Mapping order is significant and is kept.
package schemafile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

//go:embed defaults.yaml
var defaultSchemas []byte

// LoadDefault returns the built-in FPV part schemas
func LoadDefault() ([]domain.CategorySchema, error) {
	return Parse(defaultSchemas)
}

// LoadFile reads schemas from path
func LoadFile(path string) ([]domain.CategorySchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	schemas, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schemas, nil
}

// Parse decodes a schema document keeping category, attribute and value order
func Parse(data []byte) ([]domain.CategorySchema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid schema document: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("empty schema document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of categories", root.Line)
	}

	schemas := make([]domain.CategorySchema, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name, body := root.Content[i], root.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: category %q must map attributes to value lists", body.Line, name.Value)
		}

		schema := domain.CategorySchema{Category: name.Value}
		for j := 0; j+1 < len(body.Content); j += 2 {
			attrName, list := body.Content[j], body.Content[j+1]
			if list.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("line %d: attribute %q of %q must be a list", list.Line, attrName.Value, name.Value)
			}

			attr := domain.Attribute{Name: attrName.Value, Values: make([]string, 0, len(list.Content))}
			for _, v := range list.Content {
				if v.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("line %d: values of %q must be scalars", v.Line, attrName.Value)
				}
				// raw scalar text, so 1.0mm and Yes stay as written
				attr.Values = append(attr.Values, v.Value)
			}
			schema.Attributes = append(schema.Attributes, attr)
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}
