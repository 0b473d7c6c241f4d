package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/attendly/backend/clients/blobstore"
	"github.com/attendly/backend/clients/deepgram"
	"github.com/attendly/backend/clients/identity"
	"github.com/attendly/backend/clients/openai"
	config "github.com/attendly/backend/config/meetings"
	"github.com/attendly/backend/gateways/web"
	"github.com/attendly/backend/gateways/web/handler"
	"github.com/attendly/backend/pkg/logger"
	"github.com/attendly/backend/pkg/metrics"
	"github.com/attendly/backend/pkg/queue"
	"github.com/attendly/backend/services/meetings/storage"
	"github.com/attendly/backend/services/meetings/usecase"
	"github.com/attendly/backend/services/meetings/worker"
	"github.com/attendly/backend/topics"
)

func main() {
	log := logger.New(logger.Config{
		Level:      slog.LevelInfo,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	cfg := config.MustLoad()

	ctx := logger.WithContext(context.Background(), log)

	rootCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	stg, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer stg.Close()

	var jobs queue.Queue
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		jobs = queue.NewRedisQueue(client, topics.MeetingProcessing.Name())
		log.Info("using redis job queue", "addr", cfg.RedisAddr)
	} else {
		jobs = queue.NewMemoryQueue(256)
		log.Warn("REDIS_ADDR not set, using in-process job queue")
	}

	m := metrics.New()

	transcriber := deepgram.New(deepgram.Config{
		APIKey:  cfg.Deepgram.APIKey,
		Timeout: cfg.Deepgram.Timeout,
	})
	analyzer := openai.New(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Timeout: cfg.OpenAI.Timeout,
	})
	files := blobstore.New(blobstore.Config{
		URL:    cfg.Storage.URL,
		APIKey: cfg.Storage.APIKey,
		Bucket: cfg.Storage.Bucket,
	})
	idc := identity.New(identity.Config{
		URL:     cfg.Identity.URL,
		APIKey:  cfg.Identity.APIKey,
		Timeout: cfg.Identity.Timeout,
	})

	usc := usecase.New(stg, transcriber, analyzer, files, jobs, m, usecase.Config{
		SignedURLTTL:      cfg.Storage.SignedTTL,
		TranscribeTimeout: cfg.Deepgram.Timeout,
	})

	pool := worker.New(usc, jobs, m, worker.Config{
		Workers:        cfg.Pipeline.Workers,
		SweepInterval:  cfg.Pipeline.SweepInterval,
		StuckThreshold: cfg.Pipeline.StuckThreshold,
	})
	pool.Start(ctx)

	h := handler.New(usc, idc, log, cfg.JWTSecret)
	srv := web.New(cfg, log, h, m)

	err = srv.Start(ctx)

	pool.Wait()
	log.Info("meetings service stopped")

	return err
}
