// Package server runs the HTTP and gRPC listeners until the process is
// signalled, then drains them.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hsmarket/storefront/config"
	"github.com/hsmarket/storefront/internal/kernel"
	"github.com/hsmarket/storefront/pkg/database"
	"github.com/hsmarket/storefront/pkg/grpc"
	"github.com/hsmarket/storefront/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Start boots the kernel and serves until SIGINT or SIGTERM.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k, err := kernel.Boot(ctx)
	if err != nil {
		return err
	}
	k.Start(ctx)

	if port := config.GRPCPort(); port != "" {
		grpcSrv, err := grpc.Start(port, database.Ping)
		if err != nil {
			return err
		}
		defer grpc.Stop(grpcSrv)
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hsmarket listening", "addr", srv.Addr, "env", config.AppEnv(), "driver", config.DatabaseDriver())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	return k.Close(shutdownCtx)
}
