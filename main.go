package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lockerd/internal/app"
	"lockerd/internal/auth"
	"lockerd/internal/httpapi"
	"lockerd/internal/inventory"
	"lockerd/internal/rental"
	"lockerd/internal/sheets"
	"lockerd/internal/store"

	"github.com/rs/zerolog/log"
)

func main() {
	app.SetupEnvironment()
	cfg := app.LoadConfig()

	ctx := context.Background()
	svc, err := sheets.NewServiceClient(ctx, cfg.CredentialsFile, cfg.Fetch)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	engine := rental.NewEngine(svc, rental.Config{
		ContactSheet: cfg.ContactSheet,
		RequestSheet: cfg.RequestSheet,
		LedgerSheet:  cfg.LedgerSheet,
		Term:         cfg.Term,
		ContactTTL:   cfg.ContactTTL,
		RequestTTL:   cfg.RequestTTL,
		LedgerTTL:    cfg.LedgerTTL,
	})

	snapshot := inventory.NewSnapshot(cfg.SnapshotTTL, func(ctx context.Context) (*inventory.Availability, error) {
		cache := store.NewRequestCache()
		lockers, err := cache.Get(ctx, svc, cfg.LockersSheet, cfg.LockersTTL)
		if err != nil {
			return nil, err
		}
		ledger, err := cache.Get(ctx, svc, cfg.LedgerSheet, cfg.LedgerTTL)
		if err != nil {
			return nil, err
		}
		return inventory.Reconcile(lockers, ledger)
	})

	server := httpapi.New(cfg, svc, auth.NewManager(cfg), engine, snapshot)
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("term", cfg.Term).Msg("Locker rental server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Forced shutdown")
	}
	log.Info().Msg("Server stopped")
}
