package data

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"
	"github.com/robot-zoo/robotzoo/internal/infra/feishu"
	"github.com/robot-zoo/robotzoo/internal/metrics"
)

// Platform error codes that mean "slow down"
var rateLimitCodes = map[int]bool{
	99991400: true, // request frequency limit
	230020:   true, // im operation frequency limit
}

// Platform error codes worth another attempt
var retryableCodes = map[int]bool{
	99991663: true, // tenant token invalid, the SDK refreshes it
	230099:   true, // internal error creating the message
}

// larkClient is the part of feishu.Client the social repo uses
type larkClient interface {
	Listen(ctx context.Context, handler feishu.MessageHandler) error
	SendText(ctx context.Context, receiveIDType, receiveID, text string) (string, error)
	Reply(ctx context.Context, msgID, text string) error
	Forward(ctx context.Context, msgID, chatID string) error
	Delete(ctx context.Context, msgID string) error
	AddMembers(ctx context.Context, chatID string, openIDs []string) error
	ListMessages(ctx context.Context, chatID string, startSeconds int64, pageSize int) ([]*feishu.Message, error)
}

// socialRepo implements the social platform over Feishu IM.
// The timeline chat stands in for the bot's public timeline: statuses are
// posted there, reposts are forwarded there and followed users are added
// to it.
type socialRepo struct {
	client   larkClient
	timeline string
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewSocialRepo creates the Feishu social repository.
// perMinute <= 0 disables outbound throttling.
func NewSocialRepo(client larkClient, timelineChatID string, perMinute int, m *metrics.Metrics, logger *zap.Logger) repo.SocialRepo {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &socialRepo{
		client:   client,
		timeline: timelineChatID,
		limiter:  limiter,
		metrics:  m,
		logger:   logger.Named("social"),
	}
}

// call throttles, times and classifies one outbound call
func (r *socialRepo) call(ctx context.Context, op string, fn func() error) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return &domain.ServiceError{Op: op, Err: err}
	}

	start := time.Now()
	err := fn()
	r.metrics.PlatformDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	r.metrics.PlatformCalls.WithLabelValues(op, metrics.Result(err)).Inc()

	if err != nil {
		r.logger.Warn("platform call failed", zap.String("op", op), zap.Error(err))
		return toServiceError(op, err)
	}
	return nil
}

func toServiceError(op string, err error) *domain.ServiceError {
	se := &domain.ServiceError{Op: op, Err: err}

	var apiErr *feishu.APIError
	switch {
	case errors.As(err, &apiErr):
		se.Code = apiErr.Code
		se.RateLimited = rateLimitCodes[apiErr.Code]
		se.Retryable = se.RateLimited || retryableCodes[apiErr.Code]
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// shutting down
	default:
		// transport failure
		se.Retryable = true
	}
	return se
}

func (r *socialRepo) PostStatus(ctx context.Context, text string) error {
	return r.call(ctx, "post_status", func() error {
		_, err := r.client.SendText(ctx, feishu.ReceiveChat, r.timeline, text)
		return err
	})
}

func (r *socialRepo) PostReply(ctx context.Context, inReplyToID, text string) error {
	return r.call(ctx, "post_reply", func() error {
		return r.client.Reply(ctx, inReplyToID, text)
	})
}

func (r *socialRepo) Repost(ctx context.Context, statusID string) error {
	return r.call(ctx, "repost", func() error {
		return r.client.Forward(ctx, statusID, r.timeline)
	})
}

func (r *socialRepo) Follow(ctx context.Context, userID string) error {
	return r.call(ctx, "follow", func() error {
		return r.client.AddMembers(ctx, r.timeline, []string{userID})
	})
}

func (r *socialRepo) SendDirectMessage(ctx context.Context, userID, text string) error {
	return r.call(ctx, "send_dm", func() error {
		_, err := r.client.SendText(ctx, feishu.ReceiveOpenID, userID, text)
		return err
	})
}

func (r *socialRepo) DeleteDirectMessage(ctx context.Context, messageID string) error {
	return r.call(ctx, "delete_dm", func() error {
		return r.client.Delete(ctx, messageID)
	})
}

// Mentions lists timeline messages mentioning the bot. The cursor is the
// create time (Unix milliseconds) of the newest message seen.
func (r *socialRepo) Mentions(ctx context.Context, since string) ([]domain.Status, string, error) {
	sinceMillis, _ := strconv.ParseInt(since, 10, 64)

	var msgs []*feishu.Message
	err := r.call(ctx, "mentions", func() error {
		var err error
		msgs, err = r.client.ListMessages(ctx, r.timeline, sinceMillis/1000, 50)
		return err
	})
	if err != nil {
		return nil, since, err
	}

	cursor := sinceMillis
	var mentions []domain.Status
	for _, m := range msgs {
		if m.CreateTime <= sinceMillis {
			continue
		}
		cursor = max(cursor, m.CreateTime)
		if !m.MentionsBot || (m.Sender != nil && m.Sender.SenderType == "app") {
			continue
		}
		mentions = append(mentions, toStatus(m))
	}

	if cursor == 0 {
		return mentions, since, nil
	}
	return mentions, strconv.FormatInt(cursor, 10), nil
}

// Stream forwards private chats as direct messages and group chats as
// public posts
func (r *socialRepo) Stream(ctx context.Context, handler func(domain.Event)) error {
	err := r.client.Listen(ctx, func(m *feishu.Message) {
		if m.IsPrivate() {
			dm := toDirectMessage(m)
			handler(domain.Event{Kind: domain.EventKindDirectMessage, DirectMessage: &dm})
			return
		}
		st := toStatus(m)
		handler(domain.Event{Kind: domain.EventKindStatus, Status: &st})
	})
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	return nil
}

func senderID(m *feishu.Message) string {
	if m.Sender == nil {
		return ""
	}
	return m.Sender.SenderID
}

func toStatus(m *feishu.Message) domain.Status {
	id := senderID(m)
	return domain.Status{
		ID:         m.MsgID,
		Text:       m.Content,
		ScreenName: id,
		UserID:     id,
		ChatID:     m.ChatID,
		CreatedAt:  time.UnixMilli(m.CreateTime),
	}
}

func toDirectMessage(m *feishu.Message) domain.DirectMessage {
	id := senderID(m)
	return domain.DirectMessage{
		ID:               m.MsgID,
		Text:             m.Content,
		SenderScreenName: id,
		SenderID:         id,
		ChatID:           m.ChatID,
		CreatedAt:        time.UnixMilli(m.CreateTime),
	}
}
