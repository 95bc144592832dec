package main

import (
	"Lumen/internal/api/config"
	"Lumen/internal/pkg/logger"
	"Lumen/internal/pkg/security"
	"Lumen/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载配置
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}
	cfg := config.Cfg

	logger.InitLogger("lumen-relay")
	security.SetSecret(cfg.Server.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// relay 只依赖消息中间件
	broker, err := wire.NewBroker(cfg.Broker)
	if err != nil {
		log.Error("Fatal error: failed to create broker", "err", err)
		panic(err)
	}
	defer func() {
		_ = broker.Close()
	}()
	if err = broker.Declare(ctx, cfg.Queues.Realtime); err != nil {
		log.Error("Fatal error: failed to declare realtime queue", "err", err)
		panic(err)
	}

	app := wire.BuildRelay(broker, cfg)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Consumers.Start(ctx)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Relay.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("Relay Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
		case sig := <-quit:
			log.Info("Received signal, shutting down...", "signal", sig)
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Relay Server shutdown failed", "err", err)
		}
		app.Hub.Close()
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Relay exited with error", "err", err)
	}
	log.Info("Relay exited successfully.")
}
