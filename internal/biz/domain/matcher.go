package domain

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds text to lower-case ASCII ("Café" -> "cafe",
// "Łódź" -> "lodz", "straße" -> "strasse"). Word boundaries in the
// term pattern are ASCII-only, so no other letter may survive.
func Normalize(text string) string {
	// Transformers keep state, so build a fresh chain per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	// Letters without a decomposition (ł, ø, ß, æ) need transliteration
	return strings.ToLower(unidecode.Unidecode(out))
}

// TermPattern builds the whole-word disjunction for terms.
// It returns "" for an empty list.
func TermPattern(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = regexp.QuoteMeta(term)
	}
	return `\b(?:` + strings.Join(quoted, "|") + `)\b`
}

// Matcher tests normalized text against the current term list
type Matcher struct {
	mu      sync.RWMutex
	pattern string
	re      *regexp.Regexp
}

// NewMatcher creates a matcher with no terms; it matches nothing
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Update rebuilds the pattern from terms. The regexp is recompiled only
// when the pattern differs from the previous one; the result reports
// whether that happened.
func (m *Matcher) Update(terms []string) bool {
	pattern := TermPattern(terms)

	m.mu.Lock()
	defer m.mu.Unlock()

	if pattern == m.pattern {
		return false
	}
	m.pattern = pattern
	if pattern == "" {
		m.re = nil
		return true
	}
	m.re = regexp.MustCompile(pattern)
	return true
}

// Matches reports whether text contains any whole-word term
func (m *Matcher) Matches(text string) bool {
	m.mu.RLock()
	re := m.re
	m.mu.RUnlock()

	if re == nil {
		return false
	}
	return re.MatchString(Normalize(text))
}

// Pattern returns the current pattern, "" when no terms are configured
func (m *Matcher) Pattern() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pattern
}
