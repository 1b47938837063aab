package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robot-zoo/robotzoo/internal/api"
	"github.com/robot-zoo/robotzoo/internal/biz"
	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/usecase"
	"github.com/robot-zoo/robotzoo/internal/conf"
	"github.com/robot-zoo/robotzoo/internal/data"
	"github.com/robot-zoo/robotzoo/internal/infra/feishu"
	"github.com/robot-zoo/robotzoo/internal/infra/openai"
	"github.com/robot-zoo/robotzoo/internal/logging"
	"github.com/robot-zoo/robotzoo/internal/metrics"
	"github.com/robot-zoo/robotzoo/internal/retry"
	"github.com/robot-zoo/robotzoo/internal/server"
	"github.com/robot-zoo/robotzoo/internal/service"
)

const (
	botCasio      = "casio"
	botGrotebroer = "grotebroer"
	botMsvlieland = "msvlieland"
	botConvertbot = "convertbot"
)

// app holds what every command shares
type app struct {
	cfg            *conf.Config
	logger         *zap.Logger
	metrics        *metrics.Metrics
	metricsHandler http.Handler
	repos          *data.Repositories
	clock          clockwork.Clock
	policy         retry.Policy
}

func newApp(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.dryRun {
		cfg.DryRun = true
	}
	if flags.verbose || cfg.Debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	if cfg.Bots.Source != "" {
		logger.Info("bots config loaded", zap.String("path", cfg.Bots.Source))
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	// Initialize clients
	var feishuClient *feishu.Client
	if cfg.HasPlatform() {
		feishuClient = feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, logger)
		if err := feishuClient.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to feishu: %w", err)
		}
		logger.Info("feishu connected", zap.String("bot_open_id", feishuClient.BotOpenID()))
	}

	var openaiClient *openai.Client
	if cfg.OpenAI.APIKey != "" {
		openaiClient = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, logger)
		logger.Info("relevance filter enabled")
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(feishuClient, openaiClient, data.Options{
		TimelineChatID:     cfg.Feishu.TimelineChatID,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DryRun:             cfg.DryRun,
		StateDBPath:        cfg.State.DBPath,
	}, m, logger)
	if err != nil {
		return nil, fmt.Errorf("create repositories: %w", err)
	}
	if cfg.DryRun {
		logger.Warn("dry run: platform writes are logged, not sent")
	}

	policy := retry.DefaultPolicy
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		logger.Debug("retrying platform call",
			zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
	}

	return &app{
		cfg:            cfg,
		logger:         logger,
		metrics:        m,
		metricsHandler: metrics.Handler(reg),
		repos:          repos,
		clock:          clockwork.NewRealClock(),
		policy:         policy,
	}, nil
}

// Close releases the repositories and flushes the logger
func (a *app) Close() {
	if err := a.repos.Close(); err != nil {
		a.logger.Warn("close repositories", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// Post sends one status to the timeline
func (a *app) Post(ctx context.Context, text string) error {
	err := retry.DoVoid(ctx, a.policy, usecase.ClassifyServiceError, func() error {
		return a.repos.Social.PostStatus(ctx, text)
	})
	if err != nil {
		return fmt.Errorf("post status: %w", err)
	}
	a.logger.Info("status posted", zap.String("text", text))
	return nil
}

// RunBot runs one bot until ctx is cancelled or a component fails
func (a *app) RunBot(ctx context.Context, bot string) error {
	uc, err := a.newUsecases(ctx, bot)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	bots := a.cfg.Bots

	var job service.MinuteJob
	switch bot {
	case botCasio:
		job = service.NewCasioService(uc.Alarms, a.repos.Social, a.policy, a.metrics, a.logger).OnMinute
	case botMsvlieland:
		job = service.NewHornService(a.repos.Social, bots.Msvlieland.HornText, bots.Msvlieland.Departures, a.metrics, a.logger).OnMinute
	case botConvertbot:
		job = service.NewConvertService(a.repos.Social, bots.Convertbot.Odds, rand.IntN, a.metrics, a.logger).OnMinute
	case botGrotebroer:
		svc := service.NewGrotebroerService(uc.Commands, uc.Inspect, a.repos.Social, a.policy, bots.Grotebroer.QueueSize, a.metrics, a.logger)
		window := time.Duration(bots.Grotebroer.DedupeMinutes) * time.Minute
		stream := server.NewStreamServer(a.repos.Social, svc, window, a.clock, a.logger)
		g.Go(func() error { return stream.Run(gctx) })
	default:
		return fmt.Errorf("unknown bot %q", bot)
	}
	if job != nil {
		runner := service.NewMinuteRunner(bot, job, a.clock, a.cfg.Location, a.logger)
		g.Go(func() error { return runner.Run(gctx) })
	}

	// Initialize HTTP API server
	if a.cfg.API.Port > 0 {
		apiServer := api.NewServer(bot, api.Options{
			Commands: uc.Commands,
			Alarms:   uc.Alarms,
			Matcher:  uc.Matcher,
			Metrics:  a.metricsHandler,
		}, a.cfg.API.Port, a.logger)
		g.Go(func() error { return apiServer.Run(gctx) })
	}

	a.logger.Info("bot started", zap.String("bot", bot), zap.String("timezone", a.cfg.Location.String()))
	err = g.Wait()
	a.logger.Info("bot stopped", zap.String("bot", bot))
	if ctx.Err() != nil {
		// Signalled shutdown
		return nil
	}
	return err
}

// newUsecases builds the usecases the bot needs; stateless bots get none
func (a *app) newUsecases(ctx context.Context, bot string) (*biz.Usecases, error) {
	uc := &biz.Usecases{}
	if bot != botCasio && bot != botGrotebroer {
		return uc, nil
	}

	store, err := usecase.NewStateStore(ctx, bot, a.repos.State)
	if err != nil {
		return nil, fmt.Errorf("load %s state: %w", bot, err)
	}
	uc.Store = store

	switch bot {
	case botCasio:
		parser := domain.NewAlarmParser(
			domain.WithKeyword(a.cfg.Bots.Casio.AlarmKeyword),
			domain.WithLocation(a.cfg.Location),
		)
		uc.Alarms = usecase.NewAlarmUsecase(store, parser, a.logger)
	case botGrotebroer:
		if err := store.SeedAdmins(ctx, a.cfg.Admins); err != nil {
			return nil, fmt.Errorf("seed admins: %w", err)
		}
		uc.Matcher = domain.NewMatcher()
		filter := usecase.NewFilterUsecase(a.repos.Filter, a.cfg.Bots.Grotebroer.FilterStrategy, a.logger)
		uc.Commands = usecase.NewCommandUsecase(store, a.cfg.Bots.Grotebroer.Usage, a.logger)
		uc.Inspect = usecase.NewInspectUsecase(store, uc.Matcher, filter, usecase.NewDecider(rand.IntN), a.repos.Social, a.policy, a.logger)
	}
	return uc, nil
}
