package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/store"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := store.Open(openCtx, cfg.SessionDSN)
	cancel()
	if err != nil {
		log.Fatalf("session store open: %v", err)
	}

	kv := &store.KV{DB: db}
	if len(cfg.SessionSecret) > 0 {
		sealer, err := store.NewSealer(cfg.SessionSecret)
		if err != nil {
			log.Fatalf("session sealer: %v", err)
		}
		kv.Sealer = sealer
	} else {
		logger.Warn("SESSION_SECRET not set, session values are stored unsealed")
	}

	pub, err := events.New(cfg.KafkaBrokers)
	if err != nil {
		log.Fatalf("events: %v", err)
	}
	logger.Info("events configured", "brokers", events.Describe(cfg.KafkaBrokers))

	api := backend.NewClient(cfg.APIBaseURL, cfg.APITimeout)
	sess := session.New(kv, api, pub)
	api.UseCredentials(sess)
	if err := sess.Rehydrate(ctx); err != nil {
		logger.Error("session rehydrate failed", "error", err)
	}

	var searcher *search.Searcher
	if cfg.ESURL != "" {
		esCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		es, err := search.NewClient(esCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		cancel()
		if err != nil {
			logger.Warn("search disabled", "error", err)
		} else {
			searcher = search.New(es, cfg.ESIndex)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(httpserver.Common(logger, cfg.AllowedOrigins, sess)...)

	deps := httpserver.NewDeps(api, sess, pub, searcher, time.Local, time.Now)
	deps.Ready = func(ctx context.Context) error { return store.Ping(ctx, db) }
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if err := pub.Close(); err != nil {
		logger.Error("events close", "error", err)
	}
	if err := store.Close(db); err != nil {
		logger.Error("session store close", "error", err)
	}

	logger.Info("storefront stopped")
}
