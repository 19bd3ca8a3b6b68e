package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/alirazi1992/helpdesk-backend/internal/config"
	"github.com/alirazi1992/helpdesk-backend/internal/db"
	httpapi "github.com/alirazi1992/helpdesk-backend/internal/http"
	"github.com/alirazi1992/helpdesk-backend/internal/repo"
	"github.com/alirazi1992/helpdesk-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "helpdesk-backend").Logger()

	ctx := context.Background()

	var backend httpapi.Backend
	if cfg.DatabaseURL == "" {
		mem := repo.NewMemory()
		mem.SeedTickets(repo.SampleTickets())
		if _, err := mem.ReplaceTechnicians(ctx, repo.DefaultRoster()); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed roster")
		}
		backend = httpapi.Backend{
			Tickets:     mem,
			Technicians: mem.Technicians(),
			Rules:       mem.Rules(),
			Runs:        mem.Runs(),
		}
		logger.Info().Msg("using in-memory roster")
	} else {
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		defer store.Close()
		backend = httpapi.Backend{
			Tickets:     store.Tickets(),
			Technicians: store.Technicians(),
			Rules:       store.Rules(),
			Runs:        store.Runs(),
			Pinger:      store,
		}
	}

	if err := backend.Rules.Seed(ctx, service.DefaultRules()); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed rules")
	}

	engine := &service.Engine{
		Tickets:     backend.Tickets,
		Technicians: backend.Technicians,
		Rules:       backend.Rules,
		Logger:      logger,
		BatchLimit:  cfg.SimulationLimit,
	}

	router := httpapi.Router(cfg, backend, engine, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
