package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"
	"github.com/robot-zoo/robotzoo/internal/service"
)

// DefaultDedupeWindow is how long an event id is remembered
const DefaultDedupeWindow = 5 * time.Minute

// StreamServer feeds the platform stream into the keyword watcher
type StreamServer struct {
	social     repo.SocialRepo
	grotebroer *service.GrotebroerService
	clock      clockwork.Clock
	window     time.Duration
	logger     *zap.Logger

	// Event deduplication cache
	seenMu sync.Mutex
	seen   map[string]time.Time // event id -> first seen
}

// NewStreamServer creates a new stream server. window <= 0 uses
// DefaultDedupeWindow; clock defaults to the real clock.
func NewStreamServer(social repo.SocialRepo, grotebroer *service.GrotebroerService, window time.Duration, clock clockwork.Clock, logger *zap.Logger) *StreamServer {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StreamServer{
		social:     social,
		grotebroer: grotebroer,
		clock:      clock,
		window:     window,
		logger:     logger.Named("stream"),
		seen:       make(map[string]time.Time),
	}
}

// Run runs the command flow, the inspector and the stream reader until
// ctx ends or the stream fails
func (s *StreamServer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.grotebroer.RunCommands(gctx) })
	g.Go(func() error { return s.grotebroer.RunInspector(gctx) })
	g.Go(func() error {
		defer s.grotebroer.Stop(gctx)
		err := s.social.Stream(gctx, func(e domain.Event) { s.route(gctx, e) })
		if err != nil && gctx.Err() == nil {
			return fmt.Errorf("stream ended: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// route drops duplicates and hands each event to its flow
func (s *StreamServer) route(ctx context.Context, e domain.Event) {
	id := e.ID()
	if id == "" {
		return
	}
	if !s.markSeen(id) {
		s.logger.Debug("duplicate event ignored", zap.String("id", id))
		return
	}

	switch e.Kind {
	case domain.EventKindDirectMessage:
		s.grotebroer.SubmitDirectMessage(ctx, e.DirectMessage)
	case domain.EventKindStatus:
		s.grotebroer.Enqueue(e.Status)
	}
}

// markSeen records id and reports whether it was new
func (s *StreamServer) markSeen(id string) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	now := s.clock.Now()
	if ts, ok := s.seen[id]; ok && now.Sub(ts) < s.window {
		return false
	}
	s.seen[id] = now

	// Expire old ids while holding the lock anyway
	cutoff := now.Add(-s.window)
	for k, ts := range s.seen {
		if ts.Before(cutoff) {
			delete(s.seen, k)
		}
	}
	return true
}
