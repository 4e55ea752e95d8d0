// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"polling-job-service/internal/config"
	"polling-job-service/internal/jobproc"
	"polling-job-service/internal/service"
	"polling-job-service/internal/store"
	httptransport "polling-job-service/internal/transport/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var st store.Store
	switch cfg.StoreBackend {
	case config.BackendSweep:
		st = store.NewSweepStore(cfg.StoreOptions(), logger)
	default:
		st = store.NewCacheStore(cfg.StoreOptions(), logger)
	}
	defer st.Close()

	coord := service.NewCoordinator(st, logger)

	h := httptransport.NewHandler(st, coord,
		&jobproc.Weather{Delay: cfg.WorkDuration},
		&jobproc.Lottery{Delay: cfg.WorkDuration},
		&jobproc.Echo{Delay: cfg.WorkDuration},
	)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httptransport.Routes(h, logger),
	}

	logger.Info("api started",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("store_backend", cfg.StoreBackend),
		slog.Duration("job_lifetime", cfg.JobLifetime),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server", slog.String("error", err.Error()))
	}

	// Stop in-flight work; each job records itself Canceled.
	coord.Shutdown()

	logger.Info("api stopped")
}
