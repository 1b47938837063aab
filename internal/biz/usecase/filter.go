package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/repo"
)

// FilterUsecase handles the optional relevance check of keyword hits
type FilterUsecase struct {
	filterRepo repo.FilterRepo
	strategy   string
	logger     *zap.Logger
}

// NewFilterUsecase creates a new filter usecase; filterRepo may be nil
func NewFilterUsecase(filterRepo repo.FilterRepo, strategy string, logger *zap.Logger) *FilterUsecase {
	return &FilterUsecase{
		filterRepo: filterRepo,
		strategy:   strategy,
		logger:     logger.Named("filter"),
	}
}

// IsRelevant reports whether a matched post should reach the coin flip.
// Without a filter every hit is relevant. Filter failures let the hit
// through so an outage never silences the bot.
func (uc *FilterUsecase) IsRelevant(ctx context.Context, text string, terms []string) bool {
	if uc.filterRepo == nil {
		return true
	}
	ok, err := uc.filterRepo.IsRelevant(ctx, text, terms, uc.strategy)
	if err != nil {
		uc.logger.Warn("relevance filter failed, passing hit through", zap.Error(err))
		return true
	}
	return ok
}

// IsFilterEnabled returns whether filter is enabled
func (uc *FilterUsecase) IsFilterEnabled() bool {
	return uc.filterRepo != nil
}
