package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"
	"github.com/robot-zoo/robotzoo/internal/retry"
)

// Verdict is the outcome of inspecting one post
type Verdict int

const (
	VerdictNoTerms    Verdict = iota // nothing configured to look for
	VerdictNoMatch                   // no term in the text
	VerdictIrrelevant                // relevance filter rejected the hit
	VerdictSpared                    // coin flip said no
	VerdictActed                     // repost and follow attempted
)

func (v Verdict) String() string {
	switch v {
	case VerdictNoTerms:
		return "no_terms"
	case VerdictNoMatch:
		return "no_match"
	case VerdictIrrelevant:
		return "irrelevant"
	case VerdictSpared:
		return "spared"
	case VerdictActed:
		return "acted"
	}
	return "unknown"
}

// InspectUsecase runs posts through match, filter and decision
type InspectUsecase struct {
	store   *StateStore
	matcher *domain.Matcher
	filter  *FilterUsecase
	decider *Decider
	social  repo.SocialRepo
	policy  retry.Policy
	logger  *zap.Logger
}

// NewInspectUsecase creates a new inspect usecase
func NewInspectUsecase(
	store *StateStore,
	matcher *domain.Matcher,
	filter *FilterUsecase,
	decider *Decider,
	social repo.SocialRepo,
	policy retry.Policy,
	logger *zap.Logger,
) *InspectUsecase {
	return &InspectUsecase{
		store:   store,
		matcher: matcher,
		filter:  filter,
		decider: decider,
		social:  social,
		policy:  policy,
		logger:  logger.Named("inspect"),
	}
}

// Refresh rebuilds the matcher from the stored terms when they changed
func (uc *InspectUsecase) Refresh() *domain.BotState {
	state := uc.store.Snapshot()
	if uc.matcher.Update(state.Terms) {
		uc.logger.Info("new term pattern", zap.String("pattern", uc.matcher.Pattern()))
	}
	return state
}

// Inspect decides on one post and, on a hit, reposts it and follows its
// author. Both actions are attempted even when the first fails.
func (uc *InspectUsecase) Inspect(ctx context.Context, status *domain.Status) (Verdict, error) {
	state := uc.Refresh()
	if uc.matcher.Pattern() == "" {
		return VerdictNoTerms, nil
	}
	if !uc.matcher.Matches(status.Text) {
		return VerdictNoMatch, nil
	}
	uc.logger.Info("match",
		zap.String("id", status.ID),
		zap.String("from", status.ScreenName),
		zap.String("text", status.Text))

	if !uc.filter.IsRelevant(ctx, status.Text, state.Terms) {
		return VerdictIrrelevant, nil
	}
	if !uc.decider.Decide(state.Chance) {
		return VerdictSpared, nil
	}

	repostErr := retry.DoVoid(ctx, uc.policy, ClassifyServiceError, func() error {
		uc.logger.Info("reposting", zap.String("id", status.ID), zap.String("from", status.ScreenName))
		return uc.social.Repost(ctx, status.ID)
	})
	if repostErr != nil {
		repostErr = fmt.Errorf("repost %s: %w", status.ID, repostErr)
	}
	followErr := retry.DoVoid(ctx, uc.policy, ClassifyServiceError, func() error {
		uc.logger.Info("following", zap.String("user", status.ScreenName))
		return uc.social.Follow(ctx, status.UserID)
	})
	if followErr != nil {
		followErr = fmt.Errorf("follow %s: %w", status.ScreenName, followErr)
	}
	return VerdictActed, errors.Join(repostErr, followErr)
}
