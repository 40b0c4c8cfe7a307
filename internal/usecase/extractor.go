package usecase

import (
	"regexp"
	"strings"
)

const codeFence = "```"

// fencedBlockRegex matches the first fenced block anywhere in the text
var fencedBlockRegex = regexp.MustCompile("(?s)```(?:[jJ][sS][oO][nN])?[ \\t]*\\n?(.*?)```")

// ExtractJSON strips code-fence decoration from a model answer and returns the
// candidate JSON text. It never parses; callers decide what a parse failure means.
// The result is a fixed point: ExtractJSON(ExtractJSON(x)) == ExtractJSON(x).
func ExtractJSON(raw string) string {
	text := raw
	for {
		next := extractOnce(text)
		if next == text {
			return text
		}
		text = next
	}
}

func extractOnce(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, codeFence) {
		text = strings.TrimPrefix(text, codeFence)
		if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
			text = text[4:]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasSuffix(text, codeFence) {
		return strings.TrimSpace(strings.TrimSuffix(text, codeFence))
	}

	// Prose around a fenced answer, e.g. "Here is the data:\n```json\n{...}\n```\nHope this helps".
	// Text that already looks like JSON is left alone so fences inside string values survive.
	if !looksLikeJSON(text) {
		if m := fencedBlockRegex.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	return text
}

func looksLikeJSON(text string) bool {
	return strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[")
}
