package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"
	"github.com/robot-zoo/robotzoo/internal/metrics"
)

// hornVariants is how many distinct paddings the horn cycles through
const hornVariants = 3

// HornService sounds the ferry horn at departure times
type HornService struct {
	social     repo.SocialRepo
	text       string
	departures map[string]bool

	mu         sync.Mutex
	preventDup int

	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewHornService creates the ferry horn. departures are "HH:MM" keys in
// the runner's location.
func NewHornService(social repo.SocialRepo, text string, departures []string, m *metrics.Metrics, logger *zap.Logger) *HornService {
	if m == nil {
		m = metrics.NewNop()
	}
	deps := make(map[string]bool, len(departures))
	for _, d := range departures {
		deps[d] = true
	}
	return &HornService{
		social:     social,
		text:       text,
		departures: deps,
		metrics:    m,
		logger:     logger.Named("msvlieland"),
	}
}

// OnMinute is the msvlieland minute job
func (s *HornService) OnMinute(ctx context.Context, t time.Time) {
	if s.departures[domain.AlarmKey(t.Hour(), t.Minute())] {
		s.SoundHorn(ctx)
	}
}

// SoundHorn posts the horn. Consecutive posts differ in trailing
// padding, even when a post fails.
func (s *HornService) SoundHorn(ctx context.Context) bool {
	s.mu.Lock()
	status := domain.HornStatus(s.text, s.preventDup)
	s.preventDup = (s.preventDup + 1) % hornVariants
	s.mu.Unlock()

	s.logger.Info("posting status", zap.String("status", status), zap.Int("len", len([]rune(status))))
	err := s.social.PostStatus(ctx, status)
	s.metrics.StatusesPosted.WithLabelValues("horn", metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("horn failed", zap.Error(err))
		return false
	}
	return true
}
