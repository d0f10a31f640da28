package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/docintake/api/handlers"
	"github.com/clinicore/docintake/api/routes"
	"github.com/clinicore/docintake/config"
	"github.com/clinicore/docintake/internal/classify"
	"github.com/clinicore/docintake/internal/directory"
	intakesvc "github.com/clinicore/docintake/internal/service/intake"
	"github.com/clinicore/docintake/pkg/logger"
)

func main() {
	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	serverCfg := config.GetServerConfig()

	// classifier lexicon, optionally overridden from YAML
	var lexicon *classify.Lexicon
	if serverCfg.LexiconPath != "" {
		lexicon, err = classify.LoadLexicon(serverCfg.LexiconPath)
		if err != nil {
			log.Fatal("Failed to load lexicon:", logger.Error(err))
		}
	}

	// patient directory: file snapshot behind a redis cache
	provider := buildDirectoryProvider(serverCfg, log)

	// init intake service
	svc, err := intakesvc.GetService(log, provider, lexicon)
	if err != nil {
		log.Fatal("Failed to get intake service:", logger.Error(err))
	}

	// init handlers
	h := handlers.NewHandlers(svc, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    serverCfg.Addr,
		Handler: r,
	}

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", serverCfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error:", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown:", logger.Error(err))
	}
}

func buildDirectoryProvider(serverCfg *config.ServerConfig, log logger.Logger) directory.Provider {
	var upstream directory.Provider
	if serverCfg.DirectoryPath != "" {
		p, err := directory.NewStaticProviderFromFile(serverCfg.DirectoryPath)
		if err != nil {
			log.Warn("Patient directory not loaded, name matching disabled", logger.Error(err))
			upstream = directory.NewStaticProvider(nil)
		} else {
			upstream = p
		}
	} else {
		upstream = directory.NewStaticProvider(nil)
	}

	redisCfg := config.GetRedisConfig()
	client := redis.NewClient(&redis.Options{
		Addr: redisCfg.Addr,
		DB:   redisCfg.DB,
	})

	return directory.NewCachedProvider(upstream, client, 5*time.Minute, log)
}
