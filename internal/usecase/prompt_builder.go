package usecase

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// Template placeholders, substituted verbatim
const (
	placeholderCategory          = "{CATEGORY}"
	placeholderCompatibilityTags = "{COMPATIBILITY_TAGS}"
	placeholderCompatibilityJSON = "{COMPATIBILITY_JSON}"
)

//go:embed prompts/retrieval.md
var defaultRetrievalTemplate string

// DefaultRetrievalTemplate returns the built-in retrieval prompt template
func DefaultRetrievalTemplate() string {
	return defaultRetrievalTemplate
}

// PromptBuilder renders retrieval and validation prompts from category schemas
type PromptBuilder struct {
	retrievalTemplate string
}

// NewPromptBuilder creates a prompt builder. An empty template selects the built-in one.
func NewPromptBuilder(retrievalTemplate string) *PromptBuilder {
	if strings.TrimSpace(retrievalTemplate) == "" {
		retrievalTemplate = defaultRetrievalTemplate
	}
	return &PromptBuilder{retrievalTemplate: retrievalTemplate}
}

// BuildRetrievalPrompt renders the prompt asking for a product's structured record.
// The output depends only on its arguments.
func (b *PromptBuilder) BuildRetrievalPrompt(category, productName string, schema domain.CategorySchema) string {
	prompt := strings.ReplaceAll(b.retrievalTemplate, placeholderCategory, category)
	prompt = strings.ReplaceAll(prompt, placeholderCompatibilityTags, compatibilityGuidance(schema))
	prompt = strings.ReplaceAll(prompt, placeholderCompatibilityJSON, compatibilitySkeleton(schema))

	prompt += fmt.Sprintf("\n\nProduct title: %s\n\nPlease provide the response in valid JSON format.", productName)
	return prompt
}

// BuildValidationPrompt renders the prompt asking the model to review a candidate record
func (b *PromptBuilder) BuildValidationPrompt(category string, candidate *domain.Candidate) (string, error) {
	if candidate == nil {
		return "", fmt.Errorf("%w: candidate is nil", domain.ErrInvalidRequest)
	}

	candidateJSON, err := marshalIndentNoEscape(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to encode candidate: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a specialized FPV drone part data validator. Please review and correct the following JSON data for a %s product:\n\n", category)
	sb.WriteString(candidateJSON)
	sb.WriteString("\n\nPlease focus on the following tasks:\n")
	fmt.Fprintf(&sb, "1. Ensure all compatibility tags are correct and relevant for the %s category.\n", category)
	sb.WriteString("2. Verify that the links are valid. If there are only a few links, check them and add more links that are accurate.\n")
	sb.WriteString("3. Check that the prices are precise and accurate. They must be numbers (float), not strings.\n")
	fmt.Fprintf(&sb, "4. Make sure the specifications are relevant and accurate for a %s product. Only include specifications that are not already covered by the compatibility tags.\n", category)
	sb.WriteString("\nIf you find any issues or have any corrections, provide the full corrected JSON data. If everything is correct, return the original JSON data unchanged.\n")
	sb.WriteString("\nYour response should be a valid JSON object and nothing else.")
	return sb.String(), nil
}

// compatibilityGuidance lists every attribute with its allowed values, one per line
func compatibilityGuidance(schema domain.CategorySchema) string {
	lines := make([]string, 0, len(schema.Attributes))
	for _, attr := range schema.Attributes {
		quoted := make([]string, len(attr.Values))
		for i, v := range attr.Values {
			quoted[i] = quoteNoEscape(v)
		}
		lines = append(lines, fmt.Sprintf("   - %s: [%s]", attr.Name, strings.Join(quoted, ", ")))
	}
	return strings.Join(lines, "\n")
}

// compatibilitySkeleton emits one compatibilityTags key per attribute
func compatibilitySkeleton(schema domain.CategorySchema) string {
	lines := make([]string, 0, len(schema.Attributes))
	for _, attr := range schema.Attributes {
		lines = append(lines, fmt.Sprintf(`    %s: ["string" or null],`, quoteNoEscape(attr.Name)))
	}
	return strings.TrimSuffix(strings.Join(lines, "\n"), ",")
}

func quoteNoEscape(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `"` + s + `"`
	}
	return strings.TrimRight(buf.String(), "\n")
}

func marshalIndentNoEscape(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
