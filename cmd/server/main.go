package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacksonlee411/tenant-service/internal/server"
	"github.com/jacksonlee411/tenant-service/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	logger := logging.New(os.Stderr, os.Getenv("LOG_FORMAT"), logging.ParseLevel(os.Getenv("LOG_LEVEL")))
	defer func() { _ = logger.Sync() }()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	h, err := server.NewHandlerWithOptions(server.HandlerOptions{Logger: logger})
	if err != nil {
		logger.Fatal("build handler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
	logger.Info("stopped")
}
