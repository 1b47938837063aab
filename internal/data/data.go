package data

import (
	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/repo"
	"github.com/robot-zoo/robotzoo/internal/infra/feishu"
	"github.com/robot-zoo/robotzoo/internal/infra/openai"
	"github.com/robot-zoo/robotzoo/internal/metrics"
)

// Repositories contains all repositories
type Repositories struct {
	Social repo.SocialRepo
	State  repo.StateRepo
	Filter repo.FilterRepo // nil when no relevance filter is configured
}

// Options configures NewRepositories
type Options struct {
	TimelineChatID     string
	RateLimitPerMinute int
	DryRun             bool
	StateDBPath        string
}

// NewRepositories creates all repositories. feishuClient and openaiClient
// may be nil; without a Feishu client only dry runs make sense.
func NewRepositories(
	feishuClient *feishu.Client,
	openaiClient *openai.Client,
	opts Options,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Repositories, error) {
	stateRepo, err := NewStateRepo(opts.StateDBPath)
	if err != nil {
		return nil, err
	}

	var social repo.SocialRepo
	if feishuClient != nil {
		social = NewSocialRepo(feishuClient, opts.TimelineChatID, opts.RateLimitPerMinute, m, logger)
	}
	if opts.DryRun || social == nil {
		social = NewDryRunRepo(social, logger)
	}

	return &Repositories{
		Social: social,
		State:  stateRepo,
		Filter: NewFilterRepo(openaiClient),
	}, nil
}

// Close releases the repositories
func (r *Repositories) Close() error {
	return r.State.Close()
}
