package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
)

// Mock implementations

type mockStateRepo struct {
	mu      sync.Mutex
	states  map[string]*domain.BotState
	saves   int
	loadErr error
	saveErr error
}

func newMockStateRepo() *mockStateRepo {
	return &mockStateRepo{states: make(map[string]*domain.BotState)}
}

func (m *mockStateRepo) Load(ctx context.Context, bot string) (*domain.BotState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if s, ok := m.states[bot]; ok {
		return s.Clone(), nil
	}
	return domain.NewBotState(), nil
}

func (m *mockStateRepo) Save(ctx context.Context, bot string, state *domain.BotState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[bot] = state.Clone()
	return nil
}

func (m *mockStateRepo) Close() error { return nil }

func (m *mockStateRepo) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type mockSocialRepo struct {
	mu        sync.Mutex
	reposts   []string
	follows   []string
	repostErr error
	followErr error
}

func (m *mockSocialRepo) PostStatus(ctx context.Context, text string) error { return nil }

func (m *mockSocialRepo) PostReply(ctx context.Context, inReplyToID, text string) error { return nil }

func (m *mockSocialRepo) Repost(ctx context.Context, statusID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reposts = append(m.reposts, statusID)
	return m.repostErr
}

func (m *mockSocialRepo) Follow(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.follows = append(m.follows, userID)
	return m.followErr
}

func (m *mockSocialRepo) SendDirectMessage(ctx context.Context, userID, text string) error {
	return nil
}

func (m *mockSocialRepo) DeleteDirectMessage(ctx context.Context, messageID string) error {
	return nil
}

func (m *mockSocialRepo) Mentions(ctx context.Context, since string) ([]domain.Status, string, error) {
	return nil, since, nil
}

func (m *mockSocialRepo) Stream(ctx context.Context, handler func(domain.Event)) error {
	<-ctx.Done()
	return nil
}

type mockFilterRepo struct {
	relevant bool
	err      error
	calls    int
}

func (m *mockFilterRepo) IsRelevant(ctx context.Context, text string, terms []string, strategy string) (bool, error) {
	m.calls++
	return m.relevant, m.err
}

var errBoom = errors.New("boom")

// newTestStore builds a store over a mock repo seeded with state
func newTestStore(t *testing.T, seed *domain.BotState) (*StateStore, *mockStateRepo) {
	t.Helper()
	stateRepo := newMockStateRepo()
	if seed != nil {
		stateRepo.states["test"] = seed
	}
	store, err := NewStateStore(context.Background(), "test", stateRepo)
	if err != nil {
		t.Fatalf("NewStateStore: %v", err)
	}
	return store, stateRepo
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
