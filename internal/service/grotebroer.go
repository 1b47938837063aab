package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"
	"github.com/robot-zoo/robotzoo/internal/biz/usecase"
	"github.com/robot-zoo/robotzoo/internal/metrics"
	"github.com/robot-zoo/robotzoo/internal/retry"
)

// GrotebroerService is the keyword watcher. Admin commands arrive as
// direct messages and are handled one at a time; public posts are queued
// for the inspector. A nil post on the queue stops the inspector.
type GrotebroerService struct {
	commandUC *usecase.CommandUsecase
	inspectUC *usecase.InspectUsecase
	social    repo.SocialRepo
	policy    retry.Policy

	posts    chan *domain.Status
	dms      chan *domain.DirectMessage
	stopOnce sync.Once

	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewGrotebroerService creates the keyword watcher with a post queue of
// queueSize
func NewGrotebroerService(
	commandUC *usecase.CommandUsecase,
	inspectUC *usecase.InspectUsecase,
	social repo.SocialRepo,
	policy retry.Policy,
	queueSize int,
	m *metrics.Metrics,
	logger *zap.Logger,
) *GrotebroerService {
	if m == nil {
		m = metrics.NewNop()
	}
	return &GrotebroerService{
		commandUC: commandUC,
		inspectUC: inspectUC,
		social:    social,
		policy:    policy,
		posts:     make(chan *domain.Status, max(queueSize, 1)),
		dms:       make(chan *domain.DirectMessage),
		metrics:   m,
		logger:    logger.Named("grotebroer"),
	}
}

// Enqueue hands a post to the inspector. Posts are dropped while the
// queue is full.
func (s *GrotebroerService) Enqueue(st *domain.Status) bool {
	if st == nil {
		return false
	}
	select {
	case s.posts <- st:
		s.metrics.QueueDepth.Set(float64(len(s.posts)))
		return true
	default:
		s.logger.Warn("queue full, dropping post", zap.String("id", st.ID))
		return false
	}
}

// SubmitDirectMessage hands a direct message to the command flow and
// waits until it is taken
func (s *GrotebroerService) SubmitDirectMessage(ctx context.Context, dm *domain.DirectMessage) bool {
	select {
	case s.dms <- dm:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop queues the sentinel. The inspector finishes the posts ahead of it
// and returns.
func (s *GrotebroerService) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		select {
		case s.posts <- nil:
		case <-ctx.Done():
		}
	})
}

// RunInspector inspects queued posts until the sentinel arrives or ctx
// ends
func (s *GrotebroerService) RunInspector(ctx context.Context) error {
	s.logger.Info("inspector started")
	defer s.logger.Info("inspector stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-s.posts:
			s.metrics.QueueDepth.Set(float64(len(s.posts)))
			if st == nil {
				return nil
			}
			s.Inspect(ctx, st)
		}
	}
}

// Inspect runs one post through the inspector
func (s *GrotebroerService) Inspect(ctx context.Context, st *domain.Status) usecase.Verdict {
	verdict, err := s.inspectUC.Inspect(ctx, st)
	s.metrics.PostsInspected.WithLabelValues(verdict.String()).Inc()
	if err != nil {
		s.logger.Error("acting on post failed", zap.String("id", st.ID), zap.Error(err))
	}
	return verdict
}

// RunCommands handles direct messages until ctx ends
func (s *GrotebroerService) RunCommands(ctx context.Context) error {
	s.logger.Info("command flow started")
	defer s.logger.Info("command flow stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case dm := <-s.dms:
			s.HandleDirectMessage(ctx, dm)
		}
	}
}

// HandleDirectMessage answers an admin command and deletes the command
// message. Messages from anyone else are only logged.
func (s *GrotebroerService) HandleDirectMessage(ctx context.Context, dm *domain.DirectMessage) {
	res, ok, err := s.commandUC.HandleDirectMessage(ctx, dm)
	if !ok {
		return
	}
	if err != nil {
		s.logger.Error("saving state failed", zap.String("command", res.Command), zap.Error(err))
	}
	s.metrics.Commands.WithLabelValues(res.Command).Inc()

	s.logger.Info("answering",
		zap.String("id", dm.ID),
		zap.String("to", dm.SenderScreenName),
		zap.String("text", res.Reply),
		zap.Int("len", len(res.Reply)))
	err = retry.DoVoid(ctx, s.policy, usecase.ClassifyServiceError, func() error {
		return s.social.SendDirectMessage(ctx, dm.SenderID, res.Reply)
	})
	if err != nil {
		s.logger.Error("answer failed", zap.String("id", dm.ID), zap.Error(err))
	}

	s.logger.Info("deleting command", zap.String("id", dm.ID))
	err = retry.DoVoid(ctx, s.policy, usecase.ClassifyServiceError, func() error {
		return s.social.DeleteDirectMessage(ctx, dm.ID)
	})
	if err != nil {
		s.logger.Error("delete failed", zap.String("id", dm.ID), zap.Error(err))
	}
}
