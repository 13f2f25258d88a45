package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"crossposter/internal/clock"
	"crossposter/internal/config"
	"crossposter/internal/logging"
	"crossposter/internal/metrics"
	"crossposter/internal/platform/reddit"
	"crossposter/internal/queue"
	"crossposter/internal/scheduler"
	"crossposter/internal/service"
	"crossposter/internal/storage/sqldb"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Log, "crossposter")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("crossposter stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	db, err := sqldb.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := sqldb.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	replies, err := queue.NewRabbitMQ(queue.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		return err
	}
	defer replies.Close()

	metrics.Register()
	if cfg.Metrics.Addr != "" {
		go metrics.Serve(ctx, cfg.Metrics.Addr, logger)
	}

	clk := clock.Real{}
	client := newRedditClient(ctx, cfg.Reddit, clk, logger)

	tasks := sqldb.NewTaskStore(db)
	activity := sqldb.NewActivityStore(db)

	processor := service.NewProcessor(
		tasks,
		activity,
		service.NewAdmissionController(client, cfg.Engine, logger),
		service.NewExecutor(client, replies, clk, cfg.Engine.NSFWDefault, logger),
		clk,
		cfg.Engine.PostDelay,
		logger,
	)
	engine := service.NewEngine(tasks, processor, clk, logger)

	sched := scheduler.NewScheduler(engine, cfg.Engine, clk, logger)

	logger.Info().
		Str("account", cfg.Reddit.Username).
		Int("min_reposting_delay_hours", cfg.Engine.MinRepostingDelayHours).
		Int("max_reposting_delay_hours", cfg.Engine.MaxRepostingDelayHours).
		Int("frontpage_threshold", cfg.Engine.FrontpageThreshold).
		Msg("starting crossposter")

	return sched.Start(ctx)
}

func newRedditClient(ctx context.Context, cfg config.RedditConfig, clk clock.Clock, logger zerolog.Logger) *reddit.Client {
	httpClient := reddit.NewHTTPClient(ctx, reddit.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Username:     cfg.Username,
		Password:     cfg.Password,
		TokenURL:     cfg.TokenURL,
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout,
	})

	return reddit.New(reddit.Config{
		BaseURL:           cfg.BaseURL,
		UserAgent:         cfg.UserAgent,
		Username:          cfg.Username,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxAttempts:       cfg.Retry.MaxAttempts,
		InitialBackoff:    cfg.Retry.InitialBackoff,
		MaxBackoff:        cfg.Retry.MaxBackoff,
	}, httpClient, clk, logger)
}
