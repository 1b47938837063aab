package repo

import (
	"context"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
)

// StateRepo persists per-bot configuration (SQLite)
type StateRepo interface {
	// Load returns the bot's state, or a fresh state when none was saved
	Load(ctx context.Context, bot string) (*domain.BotState, error)

	// Save replaces the bot's persisted state
	Save(ctx context.Context, bot string, state *domain.BotState) error

	Close() error
}
