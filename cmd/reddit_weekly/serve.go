package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reddit-weekly/internal/reddit_weekly/api"
	"reddit-weekly/internal/reddit_weekly/scheduler"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run on a cron schedule and expose the HTTP API",
	RunE:  serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.ValidateServer(); err != nil {
		a.log.Error("Invalid server configuration", zap.Error(err))
		return err
	}

	worker := &scheduler.Worker{
		Log:      a.log,
		Pipeline: a.runner,
		Schedule: a.cfg.Server.Schedule,
	}
	srv := &api.Server{Log: a.log, Worker: worker}
	if a.stores != nil {
		srv.History = a.stores
	}

	r := srv.Router()
	_ = r.SetTrustedProxies(nil)
	httpSrv := &http.Server{Addr: a.cfg.Server.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		a.log.Info("Reddit Weekly Analytics is serving", zap.String("address", a.cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
