package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans untrusted HTML carried in section payloads.
// Runs at section create/update boundaries, always before commit.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the policy used for rich-text section content.
// UGC policy plus the formatting tags the editor toolbar emits.
func NewSanitizer() *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("style").OnElements("span", "p")
	policy.AllowAttrs("class").OnElements("span", "p", "div")
	policy.AllowElements("u", "s", "mark")

	return &Sanitizer{policy: policy}
}

// Clean returns html with disallowed markup stripped.
func (s *Sanitizer) Clean(html string) string {
	return s.policy.Sanitize(html)
}
