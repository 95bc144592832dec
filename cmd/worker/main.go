package main

import (
	"Lumen/internal/api/config"
	"Lumen/internal/consumer"
	"Lumen/internal/pkg/llm"
	"Lumen/internal/pkg/logger"
	"Lumen/internal/wire"
	"context"
	"errors"
	"flag"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	consumers := flag.String("consumer", "", "comma separated consumers to run: interaction,profile-sync,media-tag (empty = all)")
	withCron := flag.Bool("cron", true, "run scheduled jobs in this process")
	metricsPort := flag.Int("metrics-port", 9100, "port for /metrics, 0 disables")
	flag.Parse()

	// 加载配置
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}
	cfg := config.Cfg

	logger.InitLogger("lumen-worker")

	var names []string
	if *consumers != "" {
		names = strings.Split(*consumers, ",")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, closeStores, err := wire.OpenStores(ctx, cfg, false)
	if err != nil {
		log.Error("Fatal error: failed to open stores", "err", err)
		panic(err)
	}
	defer closeStores()

	// 标签提取能力只在需要时加载一次
	var extractor llm.Extractor
	if len(names) == 0 || slices.Contains(names, consumer.NameMediaTag) {
		extractor, err = wire.NewExtractor(cfg)
		if err != nil {
			log.Error("Fatal error: failed to load tag extractor", "err", err)
			panic(err)
		}
	}

	app := wire.BuildWorker(stores, cfg, extractor)
	mgr, err := app.Consumers.Select(names...)
	if err != nil {
		log.Error("Fatal error: invalid -consumer flag", "err", err)
		panic(err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mgr.Start(ctx)
	})

	// 定时任务
	if *withCron {
		g.Go(func() error {
			return app.CronMgr.Run(ctx)
		})
	}

	var srv *http.Server
	if *metricsPort > 0 {
		srv = &http.Server{Addr: fmt.Sprintf(":%d", *metricsPort), Handler: wire.MetricsRouter(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

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
		if srv != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Worker exited with error", "err", err)
	}
	log.Info("Worker exited successfully.")
}
