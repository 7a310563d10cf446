package services

import (
	"fmt"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
)

// blockRequirements lists the content keys each block type must carry. An entry with several
// keys is satisfied by any one of them.
var blockRequirements = map[domain.BlockType][]string{
	domain.BlockTypeHeroBanner:      {"imageUrl"},
	domain.BlockTypeProductCarousel: {"productIds", "collection"},
	domain.BlockTypeCategoryList:    {"categoryIds"},
	domain.BlockTypeBrandList:       {"brandIds", "featured"},
	domain.BlockTypeCustomHTML:      {"html"},
	domain.BlockTypeRichText:        {"markdown"},
	domain.BlockTypeImage:           {"url"},
	domain.BlockTypeSpacer:          nil,
}

// ValidateBlockContent checks that content carries what the block type needs.
func ValidateBlockContent(blockType domain.BlockType, content map[string]any) error {
	keys, known := blockRequirements[blockType]
	if !known {
		return fmt.Errorf("unknown block type %q", blockType)
	}
	if len(keys) == 0 {
		return nil
	}
	for _, key := range keys {
		if hasContent(content, key) {
			return nil
		}
	}
	return fmt.Errorf("%s block requires %s", blockType, strings.Join(keys, " or "))
}

func hasContent(content map[string]any, key string) bool {
	value, ok := content[key]
	if !ok {
		return false
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case bool:
		return v
	case []any, []string:
		return len(stringList(v)) > 0
	default:
		return v != nil
	}
}

// stringList extracts the non-blank strings of a JSON array value.
func stringList(value any) []string {
	var out []string
	switch v := value.(type) {
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func contentString(content map[string]any, key string) string {
	if s, ok := content[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func contentBool(content map[string]any, key string) bool {
	b, ok := content[key].(bool)
	return ok && b
}

// contentInt reads a JSON number, falling back when absent or out of range.
func contentInt(content map[string]any, key string, fallback, max int) int {
	var n int
	switch v := content[key].(type) {
	case float64:
		n = int(v)
	case int:
		n = v
	case int64:
		n = int(v)
	default:
		return fallback
	}
	if n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}

func copyContent(content map[string]any) map[string]any {
	out := make(map[string]any, len(content)+1)
	for k, v := range content {
		out[k] = v
	}
	return out
}
