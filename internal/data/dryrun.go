package data

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"
)

// dryRunRepo logs every write instead of performing it. Reads go to the
// wrapped repository when there is one.
type dryRunRepo struct {
	reader repo.SocialRepo
	logger *zap.Logger
	seq    atomic.Int64
}

// NewDryRunRepo creates a social repository that never writes.
// reader may be nil, in which case there are no mentions and the stream
// stays silent until ctx ends.
func NewDryRunRepo(reader repo.SocialRepo, logger *zap.Logger) repo.SocialRepo {
	return &dryRunRepo{reader: reader, logger: logger.Named("dryrun")}
}

func (r *dryRunRepo) write(op string, fields ...zap.Field) {
	fields = append(fields, zap.Int64("seq", r.seq.Add(1)))
	r.logger.Info(op, fields...)
}

func (r *dryRunRepo) PostStatus(_ context.Context, text string) error {
	r.write("post_status", zap.String("text", text))
	return nil
}

func (r *dryRunRepo) PostReply(_ context.Context, inReplyToID, text string) error {
	r.write("post_reply", zap.String("in_reply_to", inReplyToID), zap.String("text", text))
	return nil
}

func (r *dryRunRepo) Repost(_ context.Context, statusID string) error {
	r.write("repost", zap.String("status_id", statusID))
	return nil
}

func (r *dryRunRepo) Follow(_ context.Context, userID string) error {
	r.write("follow", zap.String("user_id", userID))
	return nil
}

func (r *dryRunRepo) SendDirectMessage(_ context.Context, userID, text string) error {
	r.write("send_dm", zap.String("user_id", userID), zap.String("text", text))
	return nil
}

func (r *dryRunRepo) DeleteDirectMessage(_ context.Context, messageID string) error {
	r.write("delete_dm", zap.String("message_id", messageID))
	return nil
}

func (r *dryRunRepo) Mentions(ctx context.Context, since string) ([]domain.Status, string, error) {
	if r.reader == nil {
		return nil, since, nil
	}
	return r.reader.Mentions(ctx, since)
}

func (r *dryRunRepo) Stream(ctx context.Context, handler func(domain.Event)) error {
	if r.reader == nil {
		<-ctx.Done()
		return nil
	}
	return r.reader.Stream(ctx, handler)
}

// Writes returns how many writes were swallowed
func (r *dryRunRepo) Writes() int64 {
	return r.seq.Load()
}
