package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bookhaven/backend-store/internal/config"
	"github.com/bookhaven/backend-store/internal/db"
	"github.com/bookhaven/backend-store/internal/notify"
	"github.com/bookhaven/backend-store/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "bookhaven")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := db.Connect(connectCtx, cfg.DatabaseURL, "bookhaven-worker")
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if cfg.MailProviderURL == "" {
		logger.Warn().Msg("MAIL_PROVIDER_URL not set, outgoing email is dropped")
	}
	mailer := notify.NewProviderMailer(cfg.MailProviderURL, cfg.MailAPIKey, cfg.MailFrom, cfg.MailSendTimeout, logger)

	worker := &notify.Worker{
		Mail:         mailer,
		Subscribers:  &notify.PGSubscriberStore{Pool: pool},
		ContactInbox: cfg.ContactInbox,
		Log:          logger,
	}

	redisConn, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	srv := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: cfg.QueueConcurrency,
		Queues:      map[string]int{notify.QueueMail: 1},
	})

	mux := asynq.NewServeMux()
	worker.Register(mux)

	logger.Info().Int("concurrency", cfg.QueueConcurrency).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
