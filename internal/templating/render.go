// Package templating fills {{key}} placeholders in message templates.
package templating

import (
	"sort"
	"strings"

	"whatsapp-relay/internal/models"

	"github.com/samber/lo"
)

// Placeholder returns the literal token for key, e.g. "{{name}}".
func Placeholder(key string) string {
	return "{{" + key + "}}"
}

// Render substitutes every bound placeholder in t.Content. Unbound placeholders
// stay as they are. Substitution is a single left-to-right pass, so values that
// themselves contain placeholders are not expanded again.
func Render(t models.Template, bindings map[string]string) string {
	return RenderContent(t.Content, bindings)
}

func RenderContent(content string, bindings map[string]string) string {
	if len(bindings) == 0 || !strings.Contains(content, "{{") {
		return content
	}

	keys := lo.Keys(bindings)
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, Placeholder(k), bindings[k])
	}
	return strings.NewReplacer(pairs...).Replace(content)
}

// Keys lists the distinct placeholder keys in content in order of first use.
func Keys(content string) []string {
	var keys []string
	rest := content
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			break
		}
		keys = append(keys, rest[start+2:start+2+end])
		rest = rest[start+2+end+2:]
	}
	return lo.Uniq(keys)
}
