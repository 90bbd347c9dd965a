package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cribbage/internal/config"
	"cribbage/internal/logger"
	"cribbage/internal/server"
	"cribbage/internal/session"
	"cribbage/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	log = logger.New(cfg.LogLevel)

	store, err := storage.New(cfg.RedisAddr, cfg.GameTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to redis")
	}
	defer store.Close()

	manager := session.NewManager(store, log, cfg.BotDelay)
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: server.New(manager, store, log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped gracefully")
}
