package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linesmerrill/causelist-api/api/handlers"
	"github.com/linesmerrill/causelist-api/api/scheduler"
	"github.com/linesmerrill/causelist-api/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// initialize docket, database and router
	if err := a.Initialize(ctx); err != nil {
		zap.S().Fatalw("failed to initialize causelist-api", "error", err)
	}
	a.Start()

	s := scheduler.NewScheduler(a.Registry, time.Local)
	if err := s.Start(); err != nil {
		zap.S().Fatalw("failed to start scheduler", "error", err)
	}

	port := a.Config.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.S().Infow("causelist-api is up and running",
			"port", port,
			"url", a.Config.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("causelist-api is shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		s.Stop()
		if cerr := a.Close(shutdownCtx); err == nil {
			err = cerr
		}
		return err
	})

	if err := g.Wait(); err != nil {
		zap.S().Fatalw("causelist-api stopped with error", "error", err)
	}
	zap.S().Info("causelist-api stopped")
}
