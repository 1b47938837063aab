package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"
	"github.com/robot-zoo/robotzoo/internal/biz/usecase"
	"github.com/robot-zoo/robotzoo/internal/metrics"
	"github.com/robot-zoo/robotzoo/internal/retry"
)

// CasioService is the alarm clock: an hourly beep, alarms read from
// mentions and a reply to each requester when their alarm is due
type CasioService struct {
	alarmUC *usecase.AlarmUsecase
	social  repo.SocialRepo
	policy  retry.Policy
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCasioService creates the alarm clock service
func NewCasioService(alarmUC *usecase.AlarmUsecase, social repo.SocialRepo, policy retry.Policy, m *metrics.Metrics, logger *zap.Logger) *CasioService {
	if m == nil {
		m = metrics.NewNop()
	}
	return &CasioService{
		alarmUC: alarmUC,
		social:  social,
		policy:  policy,
		metrics: m,
		logger:  logger.Named("casio"),
	}
}

// OnMinute is the casio minute job
func (s *CasioService) OnMinute(ctx context.Context, t time.Time) {
	if t.Minute() == 0 {
		s.Beep(ctx, t)
	}
	s.PollMentions(ctx)
	s.SendAlarms(ctx, t)
}

// Beep posts the hourly beep status
func (s *CasioService) Beep(ctx context.Context, t time.Time) bool {
	status := domain.BeepStatus(t)
	s.logger.Info("posting status", zap.String("status", status))

	err := s.social.PostStatus(ctx, status)
	s.metrics.StatusesPosted.WithLabelValues("beep", metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("beep failed", zap.Error(err))
		return false
	}
	return true
}

// PollMentions reads new mentions and saves the alarms they ask for
func (s *CasioService) PollMentions(ctx context.Context) bool {
	mentions, cursor, err := s.social.Mentions(ctx, s.alarmUC.Cursor())
	if err != nil {
		s.logger.Error("fetching mentions failed", zap.Error(err))
		return false
	}

	added, err := s.alarmUC.RecordMentions(ctx, mentions, cursor)
	s.metrics.AlarmsSet.Add(float64(added))
	if err != nil {
		s.logger.Error("saving alarms failed", zap.Error(err))
		return false
	}
	if added > 0 {
		s.logger.Info("alarms set", zap.Int("count", added), zap.String("cursor", cursor))
	}
	return true
}

// SendAlarms replies to everyone whose alarm is due at t. A reply that
// still fails after retrying is logged and dropped.
func (s *CasioService) SendAlarms(ctx context.Context, t time.Time) int {
	due, err := s.alarmUC.DrainDue(ctx, t.Hour(), t.Minute())
	if err != nil {
		s.logger.Error("draining alarms failed", zap.Error(err))
	}

	sent := 0
	for _, req := range due {
		status := domain.AlarmReply(req.ScreenName)
		s.logger.Info("posting alarm",
			zap.String("in_reply_to", req.MessageID),
			zap.String("status", status),
			zap.Int("len", len([]rune(status))))

		err := retry.DoVoid(ctx, s.policy, usecase.ClassifyServiceError, func() error {
			return s.social.PostReply(ctx, req.MessageID, status)
		})
		s.metrics.AlarmsFired.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			s.logger.Error("alarm reply failed",
				zap.String("in_reply_to", req.MessageID),
				zap.String("to", req.ScreenName),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
