package config

// Config 配置主体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Relay     RelayConfig     `mapstructure:"relay"`
	DB        DBConfig        `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Neo4j     Neo4jConfig     `mapstructure:"neo4j"`
	Elastic   ElasticConfig   `mapstructure:"elastic"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Logstash  LogstashConfig  `mapstructure:"logstash"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Queues    QueueNames      `mapstructure:"queues"`
	Consumers ConsumersConfig `mapstructure:"consumers"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Tagger    TaggerConfig    `mapstructure:"tagger"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// RequestTimeout 单个请求的超时时间（秒）
	RequestTimeout int `mapstructure:"request_timeout"`
}

// RelayConfig 实时推送服务配置
type RelayConfig struct {
	Port       int `mapstructure:"port"`
	SendBuffer int `mapstructure:"send_buffer"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// Neo4jConfig 图数据库配置
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// ElasticConfig Elastic配置
type ElasticConfig struct {
	Enable       bool   `mapstructure:"enable"`
	Address      string `mapstructure:"address"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	ContentIndex string `mapstructure:"content_index"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	MainBucket string `mapstructure:"main_bucket"`
	UseSSL     bool   `mapstructure:"use_ssl"`
	// PublicHosts 允许作为内容媒体地址的公开域名 (CDN)
	PublicHosts []string `mapstructure:"public_hosts"`
}

type LLMConfig struct {
	URL         string `mapstructure:"url"`
	VisionModel string `mapstructure:"vision_model"`
	ApiKey      string `mapstructure:"api_key"`
	TagPrompt   string `mapstructure:"tag_prompt"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// BrokerConfig 消息中间件配置，driver 可选 kafka / nats / memory
type BrokerConfig struct {
	Driver string      `mapstructure:"driver"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
	Nats   NatsConfig  `mapstructure:"nats"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	GroupID  string         `mapstructure:"group_id"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Producer ProducerConfig `mapstructure:"producer"`
	Topic    TopicConfig    `mapstructure:"topic"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type ProducerConfig struct {
	RetryMax int `mapstructure:"retry_max"`
	Timeout  int `mapstructure:"timeout"`
}

// TopicConfig 自动创建 topic 时使用的参数
type TopicConfig struct {
	Partitions        int32 `mapstructure:"partitions"`
	ReplicationFactor int16 `mapstructure:"replication_factor"`
}

type NatsConfig struct {
	URL          string `mapstructure:"url"`
	StreamPrefix string `mapstructure:"stream_prefix"`
	Replicas     int    `mapstructure:"replicas"`
}

// QueueNames 各业务队列名称
type QueueNames struct {
	Interactions string `mapstructure:"interactions"`
	ProfileSync  string `mapstructure:"profile_sync"`
	MediaTagging string `mapstructure:"media_tagging"`
	Realtime     string `mapstructure:"realtime"`
}

// ConsumersConfig 各消费者并发度
type ConsumersConfig struct {
	Interaction int `mapstructure:"interaction"`
	ProfileSync int `mapstructure:"profile_sync"`
	MediaTag    int `mapstructure:"media_tag"`
	Realtime    int `mapstructure:"realtime"`
}

// RecommendConfig 推荐参数
type RecommendConfig struct {
	Lambda          float64       `mapstructure:"lambda"`
	FallbackAge     int           `mapstructure:"fallback_age"`
	DefaultPageSize int           `mapstructure:"default_page_size"`
	MaxPageSize     int           `mapstructure:"max_page_size"`
	Policy          string        `mapstructure:"policy"`
	SessionTTL      int           `mapstructure:"session_ttl"`
	BackfillPool    int           `mapstructure:"backfill_pool"`
	Breaker         BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxFailures uint32 `mapstructure:"max_failures"`
	Timeout     int    `mapstructure:"timeout"`
}

type TaggerConfig struct {
	MaxImageSide int `mapstructure:"max_image_side"`
	MaxLabels    int `mapstructure:"max_labels"`
	Timeout      int `mapstructure:"timeout"`
	MaxBytes     int `mapstructure:"max_bytes"`
}

type JobsConfig struct {
	LikeReconcileSpec   string `mapstructure:"like_reconcile_spec"`
	LikeReconcileWindow int    `mapstructure:"like_reconcile_window"`
	LikeReconcileLimit  int    `mapstructure:"like_reconcile_limit"`
}
