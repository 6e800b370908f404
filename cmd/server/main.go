package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yuhaojin/stocklens/internal/config"
	"github.com/yuhaojin/stocklens/internal/database"
	"github.com/yuhaojin/stocklens/internal/database/repositories"
	"github.com/yuhaojin/stocklens/internal/modules/fundamental"
	"github.com/yuhaojin/stocklens/internal/modules/orchestrator"
	"github.com/yuhaojin/stocklens/internal/modules/sentiment"
	"github.com/yuhaojin/stocklens/internal/modules/technical"
	"github.com/yuhaojin/stocklens/internal/providers"
	"github.com/yuhaojin/stocklens/internal/scheduler"
	"github.com/yuhaojin/stocklens/internal/server"
	"github.com/yuhaojin/stocklens/internal/synthesis"
	"github.com/yuhaojin/stocklens/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting StockLens")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	repo := repositories.NewAnalysisRepository(db.Conn(), log)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repo.Init(initCtx); err != nil {
		cancelInit()
		log.Fatal().Err(err).Msg("Failed to initialize schema")
	}
	cancelInit()

	// Data providers
	news := providers.NewNewsManager(log,
		providers.NewTavilyProvider(cfg.TavilyAPIKey),
		providers.NewBraveProvider(cfg.BraveAPIKey),
	)
	data := providers.NewManager(log, news,
		providers.NewYahooProvider(log),
	)

	// AI synthesis is optional; without a key the analysis still runs
	// and the narrative is simply absent
	var synth *synthesis.Synthesizer
	if cfg.SynthesisEnabled() {
		provider, err := synthesis.NewProvider(context.Background(), cfg, "", log)
		if err != nil {
			log.Warn().Err(err).Msg("AI synthesis disabled")
		} else {
			synth = synthesis.NewSynthesizer(provider, log)
		}
	} else {
		log.Info().Msg("No AI provider configured, synthesis disabled")
	}

	orch := orchestrator.New(orchestrator.Config{
		Data:        data,
		Fundamental: fundamental.NewService(log),
		Technical:   technical.NewService(log),
		Sentiment:   sentiment.NewService(log),
		Synthesizer: synth,
		SynthesizerFactory: func(ctx context.Context, name string) (*synthesis.Synthesizer, error) {
			provider, err := synthesis.NewProvider(ctx, cfg, name, log)
			if err != nil {
				return nil, err
			}
			return synthesis.NewSynthesizer(provider, log), nil
		},
		Repo: repo,
		Log:  log,
	})

	// Background jobs
	sched := scheduler.New(log)
	if cfg.RetentionDays > 0 {
		job := scheduler.NewRetentionJob(repo, cfg.RetentionDays, log)
		if err := sched.AddJob("@daily", job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register retention job")
		}
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Orch:    orch,
		Repo:    repo,
		Data:    data,
		Config:  cfg,
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
