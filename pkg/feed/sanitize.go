package feed

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans post excerpts before they are rendered as HTML
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer makes a sanitizer allowing common formatting markup
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// HTML returns sanitized markup safe to embed in templates
func (s *Sanitizer) HTML(raw string) template.HTML {
	return template.HTML(s.policy.Sanitize(raw)) //nolint:gosec // sanitized by bluemonday
}
