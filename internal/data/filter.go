package data

import (
	"context"
	"fmt"

	"github.com/robot-zoo/robotzoo/internal/biz/repo"
	"github.com/robot-zoo/robotzoo/internal/infra/openai"
)

// filterRepo implements the relevance filter over a chat-completions model
type filterRepo struct {
	client *openai.Client
}

// NewFilterRepo creates the filter repository, or nil when no client is configured
func NewFilterRepo(client *openai.Client) repo.FilterRepo {
	if client == nil {
		return nil
	}
	return &filterRepo{client: client}
}

// IsRelevant asks the model whether the post is about one of the terms
func (r *filterRepo) IsRelevant(ctx context.Context, text string, terms []string, strategy string) (bool, error) {
	if strategy == "" {
		strategy = openai.DefaultRelevanceStrategy
	}
	ok, err := r.client.IsRelevant(ctx, text, terms, strategy)
	if err != nil {
		return false, fmt.Errorf("relevance check: %w", err)
	}
	return ok, nil
}
