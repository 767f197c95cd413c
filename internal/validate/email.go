// Package validate holds the pure input-validation helpers for the capture
// endpoints. Everything here is deterministic and side-effect free.
package validate

import (
	"regexp"
	"strings"
)

// MaxEmailLength is the RFC 5321 upper bound on a full address.
const MaxEmailLength = 320

// emailPattern: one non-whitespace/non-@ run, an @, and a dotted domain with
// no embedded whitespace. Deliberately simple; the mailbox, not this server,
// is the final arbiter.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// commonDomains are providers we suggest corrections toward when the
// submitted domain is a single edit away.
var commonDomains = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"icloud.com",
}

// domainCorrections maps frequent hard typos to their intended domain. Used
// to offer a suggestion even when the address failed format validation.
var domainCorrections = map[string]string{
	"gmial.com":   "gmail.com",
	"gmai.com":    "gmail.com",
	"yahooo.com":  "yahoo.com",
	"hotmial.com": "hotmail.com",
	"outlok.com":  "outlook.com",
}

// EmailResult is the outcome of validating one submitted address.
type EmailResult struct {
	Valid       bool
	Normalized  string
	Error       string
	Suggestions []string
}

// Validation error codes.
const (
	ErrEmpty         = "empty"
	ErrTooLong       = "too_long"
	ErrInvalidFormat = "invalid_format"
)

// Email validates a raw submitted address. The address is trimmed and
// lower-cased before any checks; Normalized carries the canonical form used
// as the store's uniqueness key. A valid address whose domain looks like a
// typo of a common provider stays valid but carries advisory Suggestions.
func Email(raw string) EmailResult {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if normalized == "" {
		return EmailResult{Error: ErrEmpty, Normalized: normalized}
	}
	if len(normalized) > MaxEmailLength {
		return EmailResult{Error: ErrTooLong, Normalized: normalized}
	}
	if !emailPattern.MatchString(normalized) {
		return EmailResult{
			Error:       ErrInvalidFormat,
			Normalized:  normalized,
			Suggestions: hardTypoSuggestions(normalized),
		}
	}

	return EmailResult{
		Valid:       true,
		Normalized:  normalized,
		Suggestions: typoSuggestions(normalized),
	}
}

// EmailFormatOK is the bare regex check used where suggestion logic is not
// wanted (feedback submissions).
func EmailFormatOK(raw string) bool {
	return emailPattern.MatchString(strings.TrimSpace(raw))
}

// hardTypoSuggestions consults the fixed typo table for invalid input.
func hardTypoSuggestions(email string) []string {
	at := strings.Index(email, "@")
	if at < 0 {
		return nil
	}
	local, domain := email[:at], email[at+1:]
	if corrected, ok := domainCorrections[domain]; ok {
		return []string{local + "@" + corrected}
	}
	return nil
}

// typoSuggestions returns corrected addresses for domains exactly one edit
// away from a common provider.
func typoSuggestions(email string) []string {
	at := strings.Index(email, "@")
	if at < 0 {
		return nil
	}
	local, domain := email[:at], email[at+1:]

	var out []string
	for _, common := range commonDomains {
		if domain == common {
			return nil
		}
		if levenshtein(domain, common) == 1 {
			out = append(out, local+"@"+common)
		}
	}
	return out
}

// levenshtein computes the edit distance between two strings with the
// standard two-row dynamic program.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(b); j++ {
		curr[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[i] = min(curr[i-1]+1, min(prev[i]+1, prev[i-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
