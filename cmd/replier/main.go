package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"crossposter/internal/clock"
	"crossposter/internal/config"
	"crossposter/internal/logging"
	"crossposter/internal/metrics"
	"crossposter/internal/platform/reddit"
	"crossposter/internal/queue"
	"crossposter/internal/replier"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Log, "replier")
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
		logger.Error().Err(err).Msg("replier stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	jobs, err := queue.NewRabbitMQ(queue.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		return err
	}
	defer jobs.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")

	metrics.Register()
	if cfg.Metrics.Addr != "" {
		go metrics.Serve(ctx, cfg.Metrics.Addr, logger)
	}

	clk := clock.Real{}
	httpClient := reddit.NewHTTPClient(ctx, reddit.Credentials{
		ClientID:     cfg.Reddit.ClientID,
		ClientSecret: cfg.Reddit.ClientSecret,
		Username:     cfg.Reddit.Username,
		Password:     cfg.Reddit.Password,
		TokenURL:     cfg.Reddit.TokenURL,
		UserAgent:    cfg.Reddit.UserAgent,
		Timeout:      cfg.Reddit.Timeout,
	})
	client := reddit.New(reddit.Config{
		BaseURL:           cfg.Reddit.BaseURL,
		UserAgent:         cfg.Reddit.UserAgent,
		Username:          cfg.Reddit.Username,
		RequestsPerSecond: cfg.Reddit.RequestsPerSecond,
		MaxAttempts:       cfg.Reddit.Retry.MaxAttempts,
		InitialBackoff:    cfg.Reddit.Retry.InitialBackoff,
		MaxBackoff:        cfg.Reddit.Retry.MaxBackoff,
	}, httpClient, clk, logger)

	runner := replier.NewRunner(
		client,
		jobs,
		replier.NewRedisDeadLetters(redisClient, cfg.Redis.DeadLetterKey),
		replier.RetryPolicy{
			MaxRetries:    cfg.Reply.MaxRetries,
			InitialDelay:  cfg.Reply.RetryDelay,
			BackoffFactor: 1,
		},
		clk,
		logger,
	)

	logger.Info().
		Int("max_retries", cfg.Reply.MaxRetries).
		Dur("retry_delay", cfg.Reply.RetryDelay).
		Msg("starting replier")

	return jobs.Consume(ctx, runner.Handle)
}
