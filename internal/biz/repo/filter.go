package repo

import "context"

// FilterRepo is the relevance filtering interface
type FilterRepo interface {
	// IsRelevant asks whether a keyword hit is worth acting on
	// text: the matched post
	// terms: the configured terms, for context
	// strategy: custom strategy (optional, uses default if empty)
	IsRelevant(ctx context.Context, text string, terms []string, strategy string) (bool, error)
}
