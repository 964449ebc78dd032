package service

import "github.com/microcosm-cc/bluemonday"

// Sanitizer strips unsafe markup from user-authored HTML.
type Sanitizer interface {
	Sanitize(raw string) string
}

// NewBodySanitizer returns the policy applied to post bodies: the user
// generated content preset, links opened in a new tab without a referrer.
func NewBodySanitizer() Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}
