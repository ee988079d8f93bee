// Command playingpast runs the Playing With the Past game server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DavidSBennett/PlayingInThePast/internal/cache"
	"github.com/DavidSBennett/PlayingInThePast/internal/catalog"
	"github.com/DavidSBennett/PlayingInThePast/internal/config"
	"github.com/DavidSBennett/PlayingInThePast/internal/game"
	"github.com/DavidSBennett/PlayingInThePast/internal/server"
	"github.com/DavidSBennett/PlayingInThePast/internal/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.OpenSQL(ctx, store.Dialect(cfg.DBDialect), cfg.DBDSN, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := catalog.Seed(ctx, st, log); err != nil {
		return err
	}

	historian, err := cache.NewHistorian(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer historian.Close()
	if historian.Enabled() {
		log.WithField("addr", cfg.RedisAddr).Info("action historian enabled")
	}

	manager, err := game.NewManager(ctx, st, historian, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(manager, st, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
