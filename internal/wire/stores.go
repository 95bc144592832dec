package wire

import (
	"Lumen/internal/api/config"
	"Lumen/internal/pkg/database"
	"Lumen/internal/pkg/es"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/minio"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/redis"
	"context"
	"fmt"
	log "log/slog"
	"time"
)

// OpenStores 依次建立存储连接，withDB 为 false 时跳过关系库
func OpenStores(ctx context.Context, cfg *config.Config, withDB bool) (*Stores, func(), error) {
	stores := &Stores{}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Stores, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if withDB {
		dbCfg := cfg.DB
		db, err := database.NewGormDB(&dbCfg)
		if err != nil {
			return fail(fmt.Errorf("database: %w", err))
		}
		stores.DB = db
		closers = append(closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	}

	if err := redis.InitRedis(cfg.Redis); err != nil {
		return fail(fmt.Errorf("redis: %w", err))
	}
	stores.Cache = redis.NewCache()
	closers = append(closers, func() { _ = redis.Rdb.Close() })

	mongoDB, err := mongo.InitMongo(cfg.Mongo)
	if err != nil {
		return fail(fmt.Errorf("mongo: %w", err))
	}
	stores.Mongo = mongoDB
	closers = append(closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoDB.Client().Disconnect(shutdownCtx)
	})

	driver, err := graph.NewDriver(cfg.Neo4j)
	if err != nil {
		return fail(fmt.Errorf("neo4j: %w", err))
	}
	closers = append(closers, func() { _ = driver.Close(context.Background()) })
	stores.Graph = graph.NewNeo4jRepo(driver, cfg.Neo4j.Database)
	if err = stores.Graph.EnsureSchema(ctx); err != nil {
		return fail(fmt.Errorf("neo4j schema: %w", err))
	}

	if cfg.Elastic.Enable {
		if err = es.InitClient(cfg.Elastic); err != nil {
			return fail(fmt.Errorf("elasticsearch: %w", err))
		}
	}
	stores.Search = SearchRepo(cfg.Elastic)

	if cfg.MinIO.Enable {
		if err = minio.Init(cfg.MinIO); err != nil {
			return fail(fmt.Errorf("minio: %w", err))
		}
	}

	broker, err := NewBroker(cfg.Broker)
	if err != nil {
		return fail(fmt.Errorf("broker: %w", err))
	}
	closers = append(closers, func() { _ = broker.Close() })
	if err = broker.Declare(ctx, cfg.Queues.Interactions, cfg.Queues.ProfileSync, cfg.Queues.MediaTagging, cfg.Queues.Realtime); err != nil {
		return fail(fmt.Errorf("declare queues: %w", err))
	}
	stores.Broker = broker

	log.Info("stores ready", "broker", cfg.Broker.Driver, "search", stores.Search != nil, "minio", cfg.MinIO.Enable)
	return stores, cleanup, nil
}
