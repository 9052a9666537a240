package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/paybackapp/payback/internal/auth"
	"github.com/paybackapp/payback/internal/config"
	"github.com/paybackapp/payback/internal/httpapi"
	"github.com/paybackapp/payback/internal/invites"
	"github.com/paybackapp/payback/internal/metrics"
	"github.com/paybackapp/payback/internal/service"
	"github.com/paybackapp/payback/internal/store"
	"github.com/paybackapp/payback/internal/store/sqlite"
	"github.com/paybackapp/payback/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	snap, err := db.Load(context.Background())
	if err != nil {
		return err
	}
	st := store.NewMemoryStoreFromSnapshot(snap)
	slog.Info("Store loaded",
		"friends", len(snap.Friends),
		"groups", len(snap.Groups),
		"expenses", len(snap.Expenses),
	)

	m := metrics.New()
	api := httpapi.New(httpapi.Options{
		Store:             st,
		Persister:         db,
		Imports:           service.NewImportService(st, db, m),
		Friends:           service.NewFriendService(st, db, cfg.ReconcileCooldown, m),
		Auth:              auth.NewPasswordAuthenticator(db),
		Tokens:            auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		Invites:           invites.NewValidator(cfg.JWTSecret),
		InviteTTL:         cfg.InviteTTL,
		Metrics:           m,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	// h2c allows HTTP/2 without TLS for clients behind a terminating proxy.
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: h2c.NewHandler(api.Router(), &http2.Server{}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "address", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
