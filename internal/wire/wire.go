package wire

import (
	"Lumen/internal/api"
	"Lumen/internal/api/config"
	"Lumen/internal/api/handler"
	"Lumen/internal/api/middleware"
	"Lumen/internal/consumer"
	"Lumen/internal/job"
	"Lumen/internal/pkg/cron"
	"Lumen/internal/pkg/es"
	"Lumen/internal/pkg/graph"
	"Lumen/internal/pkg/kafka"
	"Lumen/internal/pkg/llm"
	"Lumen/internal/pkg/logger"
	"Lumen/internal/pkg/media"
	"Lumen/internal/pkg/metrics"
	"Lumen/internal/pkg/mongo"
	"Lumen/internal/pkg/mq"
	"Lumen/internal/pkg/nats"
	"Lumen/internal/pkg/redis"
	"Lumen/internal/pkg/util"
	"Lumen/internal/relay"
	"Lumen/internal/repository"
	"Lumen/internal/service"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// NewBroker 按 driver 创建消息中间件
func NewBroker(cfg config.BrokerConfig) (mq.Broker, error) {
	switch cfg.Driver {
	case "kafka":
		return kafka.NewBroker(cfg.Kafka)
	case "nats":
		return nats.NewBroker(cfg.Nats)
	case "memory":
		return mq.NewMemoryBroker(), nil
	default:
		return nil, fmt.Errorf("unknown broker driver %q", cfg.Driver)
	}
}

// SearchRepo es 未启用时返回 nil，调用方需判空
func SearchRepo(cfg config.ElasticConfig) es.ContentRepo {
	if !cfg.Enable || es.Client == nil {
		return nil
	}
	return es.NewContentRepo(es.Client, es.ContentIndex)
}

// Stores 各进程共享的存储依赖
type Stores struct {
	DB     *gorm.DB
	Mongo  *mongodrv.Database
	Graph  graph.Repo
	Broker mq.Broker
	Cache  redis.Cache
	Search es.ContentRepo
}

// ApplicationContainer 封装了 API 进程运行所需的所有顶级组件
type ApplicationContainer struct {
	Router *gin.Engine
	DB     *gorm.DB
}

func BuildApplication(stores *Stores, cfg *config.Config) *ApplicationContainer {
	publisher := metrics.InstrumentPublisher(stores.Broker)

	userRepo := repository.NewUserRepo(stores.DB)
	contentRepo := mongo.NewContentRepo(stores.Mongo)
	commentRepo := mongo.NewCommentRepo(stores.Mongo)

	userService := service.NewUserService(userRepo, stores.Cache, publisher, cfg.Queues)
	followService := service.NewFollowService(stores.Graph, publisher, cfg.Queues)
	likeService := service.NewLikeService(contentRepo, stores.Graph, publisher, cfg.Queues)
	contentService := service.NewContentService(contentRepo, commentRepo, stores.Search, stores.Graph, userService, publisher, cfg.Queues)
	commentService := service.NewCommentService(commentRepo, contentRepo, userService, publisher, cfg.Queues)
	recommendService := service.NewRecommendService(stores.Graph, contentRepo, stores.Cache, cfg.Recommend)

	handlers := &api.HandlersGroup{
		FollowHandler:    handler.NewFollowHandler(followService),
		UserHandler:      handler.NewUserHandler(userService),
		ContentHandler:   handler.NewContentHandler(contentService, likeService),
		CommentHandler:   handler.NewCommentHandler(commentService),
		RecommendHandler: handler.NewRecommendHandler(recommendService),
	}

	router := api.SetupRouter(handlers, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	})

	return &ApplicationContainer{
		Router: router,
		DB:     stores.DB,
	}
}

// WorkerContainer worker 进程：消费者与定时任务
type WorkerContainer struct {
	Consumers *consumer.Manager
	CronMgr   *cron.Manager
}

// BuildWorker extractor 为 nil 时不挂载 media-tag 消费者
func BuildWorker(stores *Stores, cfg *config.Config, extractor llm.Extractor) *WorkerContainer {
	contentRepo := mongo.NewContentRepo(stores.Mongo)
	commentRepo := mongo.NewCommentRepo(stores.Mongo)
	publisher := metrics.InstrumentPublisher(stores.Broker)

	specs := []consumer.Spec{
		{
			Name:        consumer.NameInteraction,
			Queue:       cfg.Queues.Interactions,
			Concurrency: cfg.Consumers.Interaction,
			Handler:     consumer.NewInteractionConsumer(stores.Graph).Handle,
		},
		{
			Name:        consumer.NameProfileSync,
			Queue:       cfg.Queues.ProfileSync,
			Concurrency: cfg.Consumers.ProfileSync,
			Handler:     consumer.NewProfileSyncConsumer(contentRepo, commentRepo, stores.Search).Handle,
		},
	}
	if extractor != nil {
		fetcher := media.NewFetcher(time.Duration(cfg.Tagger.Timeout)*time.Second, int64(cfg.Tagger.MaxBytes), nil, MediaRefPolicy(cfg))
		specs = append(specs, consumer.Spec{
			Name:        consumer.NameMediaTag,
			Queue:       cfg.Queues.MediaTagging,
			Concurrency: cfg.Consumers.MediaTag,
			Handler:     consumer.NewMediaTagConsumer(contentRepo, stores.Search, fetcher, extractor, cfg.Tagger.MaxLabels).Handle,
		})
	}

	reconcileJob := job.NewLikeReconcileJob(
		contentRepo,
		stores.Graph,
		publisher,
		stores.Cache,
		cfg.Queues.Interactions,
		time.Duration(cfg.Jobs.LikeReconcileWindow)*time.Second,
		int64(cfg.Jobs.LikeReconcileLimit),
	)

	return &WorkerContainer{
		Consumers: consumer.NewManager(stores.Broker, specs...),
		CronMgr:   cron.NewCronManager(cron.Entry{Name: "like-reconcile", Spec: cfg.Jobs.LikeReconcileSpec, Job: reconcileJob}),
	}
}

// MediaRefPolicy 内容媒体只能来自主存储桶或配置的公开域名
func MediaRefPolicy(cfg *config.Config) util.MediaRefPolicy {
	policy := util.MediaRefPolicy{Hosts: cfg.MinIO.PublicHosts}
	if cfg.MinIO.MainBucket != "" {
		policy.Buckets = []string{cfg.MinIO.MainBucket}
	}
	return policy
}

// MetricsRouter worker 进程只暴露 /metrics
func MetricsRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	return router
}

// NewExtractor 创建视觉模型标签提取器
func NewExtractor(cfg *config.Config) (llm.Extractor, error) {
	model, err := llm.NewVisionModel(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return llm.NewVisionTagger(
		model,
		cfg.LLM.VisionModel,
		llm.LoadTagPrompt(cfg.LLM.TagPrompt),
		cfg.Tagger.MaxImageSide,
		cfg.Tagger.MaxLabels,
		time.Duration(cfg.Tagger.Timeout)*time.Second,
	), nil
}

// RelayContainer relay 进程：websocket 服务与 realtime 队列消费者
type RelayContainer struct {
	Hub       *relay.Hub
	Router    *gin.Engine
	Consumers *consumer.Manager
}

func BuildRelay(broker mq.Consumer, cfg *config.Config) *RelayContainer {
	hub := relay.NewHub(cfg.Relay.SendBuffer)

	router := gin.New()
	router.Use(middleware.TraceMiddleware())
	logger.SetupGin(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	relay.NewHandler(hub).RegisterRoutes(router)

	return &RelayContainer{
		Hub:    hub,
		Router: router,
		Consumers: consumer.NewManager(broker, consumer.Spec{
			Name:        consumer.NameRealtime,
			Queue:       cfg.Queues.Realtime,
			Concurrency: cfg.Consumers.Realtime,
			Handler:     consumer.NewRealtimeConsumer(hub).Handle,
		}),
	}
}
