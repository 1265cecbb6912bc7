// Package sanitize cleans HTML destined for display using the policy
// declared in the configuration.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/Protocol-Lattice/go-chatstream/src/config"
	"github.com/Protocol-Lattice/go-chatstream/src/observability"
)

// Sanitizer applies the configured HTML cleaning policy.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New compiles the policy from the html_sanitization config section.
// An absent section means content passes through unchanged, with a
// warning logged once at construction.
func New(cfg *config.Sanitization) *Sanitizer {
	if cfg == nil {
		observability.Logger().Warn("html sanitization not configured, content passes through unsanitized")
		return &Sanitizer{}
	}

	p := bluemonday.NewPolicy()
	p.AllowElements(cfg.AllowedTags...)
	for tag, attrs := range cfg.AllowedAttributes {
		if len(attrs) == 0 {
			continue
		}
		if tag == "*" {
			p.AllowAttrs(attrs...).Globally()
			continue
		}
		p.AllowAttrs(attrs...).OnElements(tag)
	}
	return &Sanitizer{policy: p}
}

// Clean strips markup not allowed by the policy. Disallowed tags are
// removed, their text content kept; comments always go.
func (s *Sanitizer) Clean(html string) string {
	if s == nil || s.policy == nil {
		return html
	}
	return s.policy.Sanitize(html)
}

// Enabled reports whether a policy is in force.
func (s *Sanitizer) Enabled() bool {
	return s != nil && s.policy != nil
}
