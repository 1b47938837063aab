package service

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"
	"github.com/robot-zoo/robotzoo/internal/metrics"
)

// luckyDraw is the draw that triggers a post
const luckyDraw = 42

// ConvertService posts the local time in a random radix now and then
type ConvertService struct {
	social  repo.SocialRepo
	odds    int
	intN    func(n int) int
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewConvertService creates the radix clock. It posts when a draw in
// [0, odds) hits the lucky number (taken modulo odds, so small odds still
// post). intN defaults to math/rand.
func NewConvertService(social repo.SocialRepo, odds int, intN func(n int) int, m *metrics.Metrics, logger *zap.Logger) *ConvertService {
	if intN == nil {
		intN = rand.IntN
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &ConvertService{
		social:  social,
		odds:    max(odds, 1),
		intN:    intN,
		metrics: m,
		logger:  logger.Named("convertbot"),
	}
}

// OnMinute is the convertbot minute job
func (s *ConvertService) OnMinute(ctx context.Context, t time.Time) {
	s.PostTime(ctx, t)
}

// PostTime posts t in a random base if the draw says so
func (s *ConvertService) PostTime(ctx context.Context, t time.Time) bool {
	if s.intN(s.odds) != luckyDraw%s.odds {
		return false
	}
	base := domain.MinRadix + s.intN(domain.MaxRadix-domain.MinRadix+1)

	status, err := domain.RadixTimeStatus(t, base)
	if err != nil {
		s.logger.Error("formatting time failed", zap.Int("base", base), zap.Error(err))
		return false
	}

	s.logger.Info("posting status", zap.String("status", status))
	err = s.social.PostStatus(ctx, status)
	s.metrics.StatusesPosted.WithLabelValues("radix", metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("post failed", zap.Error(err))
		return false
	}
	return true
}
