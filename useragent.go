package dossier

import (
	"regexp"
	"strings"
)

// MaxRequestsPerSecond is the provider's published request ceiling. No
// limiter may be configured above it.
const MaxRequestsPerSecond = 10

// contactRe matches a parenthesized contact marker containing an email-like
// address, e.g. "ResearchBot/1.0 (ops@example.com)".
var contactRe = regexp.MustCompile(`\([^()]*[^\s()@]+@[^\s()@]+\.[^\s()@]+[^()]*\)`)

// ValidateUserAgent returns EINVALID unless ua carries the contact marker
// the provider requires on every request.
func ValidateUserAgent(ua string) error {
	if strings.TrimSpace(ua) == "" {
		return Errorf(EINVALID, "user agent required: set SEC_USER_AGENT to e.g. \"MyBot/1.0 (you@example.com)\"")
	}
	if !contactRe.MatchString(ua) {
		return Errorf(EINVALID, "user agent %q must include a contact email in parentheses", ua)
	}
	return nil
}
