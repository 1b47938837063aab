package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/repo"
)

// StateStore guards one bot's state and checkpoints it after mutation.
// All mutations serialize on its mutex, persistence included.
type StateStore struct {
	bot       string
	stateRepo repo.StateRepo

	mu    sync.Mutex
	state *domain.BotState
}

// NewStateStore loads the bot's state
func NewStateStore(ctx context.Context, bot string, stateRepo repo.StateRepo) (*StateStore, error) {
	state, err := stateRepo.Load(ctx, bot)
	if err != nil {
		return nil, fmt.Errorf("load state for %s: %w", bot, err)
	}
	if state == nil {
		state = domain.NewBotState()
	}
	return &StateStore{bot: bot, stateRepo: stateRepo, state: state}, nil
}

// Bot returns the bot name the state belongs to
func (s *StateStore) Bot() string {
	return s.bot
}

// Snapshot returns a deep copy of the current state
func (s *StateStore) Snapshot() *domain.BotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update runs fn on a copy of the state. fn reports whether it changed
// anything; only then is the copy saved, and it replaces the live state
// only once the save succeeded. On a failed save memory and storage still
// agree and changed is false.
func (s *StateStore) Update(ctx context.Context, fn func(*domain.BotState) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if !fn(next) {
		return false, nil
	}
	if err := s.stateRepo.Save(ctx, s.bot, next); err != nil {
		return false, fmt.Errorf("save state for %s: %w", s.bot, err)
	}
	s.state = next
	return true, nil
}

// SeedAdmins adds admins missing from the allow-list
func (s *StateStore) SeedAdmins(ctx context.Context, admins []string) error {
	_, err := s.Update(ctx, func(st *domain.BotState) bool {
		changed := false
		for _, a := range admins {
			if a != "" && !st.IsAdmin(a) {
				st.Admins = append(st.Admins, a)
				changed = true
			}
		}
		return changed
	})
	return err
}
