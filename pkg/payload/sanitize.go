package payload

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// SanitizeText strips markup from free text. bluemonday escapes the
// surviving text, so entities are decoded again to keep ampersands and
// quotes intact in the stored value.
func SanitizeText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	cleaned := textSanitizer().Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
