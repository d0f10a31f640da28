package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/clinicore/docintake/config"
	"github.com/clinicore/docintake/pkg/logger"
	"github.com/clinicore/docintake/pkg/queue"
	"github.com/clinicore/docintake/pkg/storage"
	"github.com/clinicore/docintake/pkg/worker"
)

func main() {
	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store, err := storage.NewStorage(storage.StorageTypeMinio, log)
	if err != nil {
		log.Fatal("Failed to init storage:", logger.Error(err))
	}

	q, err := queue.GetQueue()
	if err != nil {
		log.Fatal("Failed to init queue:", logger.Error(err))
	}

	redisCfg := config.GetRedisConfig()
	previewWorker, err := worker.NewPreviewWorker(&worker.Config{
		RedisAddr:   redisCfg.Addr,
		RedisDB:     redisCfg.DB,
		Concurrency: 10,
		Queues: map[string]int{
			"default": 3,
		},
	}, store, q, log)
	if err != nil {
		log.Fatal("Failed to create preview worker:", logger.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := previewWorker.Start(ctx); err != nil {
			log.Error("Preview worker stopped:", logger.Error(err))
		}
	}()

	log.Info("Preview worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")
	if err := previewWorker.Stop(); err != nil {
		log.Error("Worker shutdown error:", logger.Error(err))
	}
}
