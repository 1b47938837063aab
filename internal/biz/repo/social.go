package repo

import (
	"context"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
)

// SocialRepo is the social platform interface
// Every call may fail with a *domain.ServiceError
type SocialRepo interface {
	// PostStatus publishes a public status
	PostStatus(ctx context.Context, text string) error

	// PostReply publishes a status in reply to another status
	PostReply(ctx context.Context, inReplyToID, text string) error

	// Repost re-shares a status on the bot's timeline
	Repost(ctx context.Context, statusID string) error

	// Follow starts following the author of a status
	Follow(ctx context.Context, userID string) error

	// SendDirectMessage sends a private message to a user
	SendDirectMessage(ctx context.Context, userID, text string) error

	// DeleteDirectMessage deletes a received private message
	DeleteDirectMessage(ctx context.Context, messageID string) error

	// Mentions returns statuses mentioning the bot after the since cursor,
	// oldest first, plus the cursor to pass next time. An empty since
	// returns the most recent page. The cursor is opaque to callers.
	Mentions(ctx context.Context, since string) ([]domain.Status, string, error)

	// Stream delivers inbound posts and direct messages until ctx ends
	// or the connection fails
	Stream(ctx context.Context, handler func(domain.Event)) error
}
