package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	Cfg = &cfg

	return nil
}

// applyDefaults 补全未配置的字段
func (c *Config) applyDefaults() {
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 10
	}
	if c.Broker.Driver == "" {
		c.Broker.Driver = "kafka"
	}
	if c.Queues.Interactions == "" {
		c.Queues.Interactions = "interactions"
	}
	if c.Queues.ProfileSync == "" {
		c.Queues.ProfileSync = "profile-sync"
	}
	if c.Queues.MediaTagging == "" {
		c.Queues.MediaTagging = "media-tagging"
	}
	if c.Queues.Realtime == "" {
		c.Queues.Realtime = "realtime-events"
	}
	if c.Consumers.Interaction <= 0 {
		c.Consumers.Interaction = 1
	}
	if c.Consumers.ProfileSync <= 0 {
		c.Consumers.ProfileSync = 1
	}
	// 推理开销大，单进程固定一个 worker
	c.Consumers.MediaTag = 1
	if c.Consumers.Realtime <= 0 {
		c.Consumers.Realtime = 4
	}
	if c.Recommend.Lambda <= 0 {
		c.Recommend.Lambda = 0.000004
	}
	if c.Recommend.FallbackAge <= 0 {
		c.Recommend.FallbackAge = 30 * 24 * 3600
	}
	if c.Recommend.DefaultPageSize <= 0 {
		c.Recommend.DefaultPageSize = 15
	}
	if c.Recommend.MaxPageSize <= 0 {
		c.Recommend.MaxPageSize = 50
	}
	if c.Recommend.Policy == "" {
		c.Recommend.Policy = "fresh"
	}
	if c.Recommend.SessionTTL <= 0 {
		c.Recommend.SessionTTL = 1800
	}
	if c.Recommend.BackfillPool <= 0 {
		c.Recommend.BackfillPool = 500
	}
	if c.Recommend.Breaker.MaxFailures == 0 {
		c.Recommend.Breaker.MaxFailures = 5
	}
	if c.Recommend.Breaker.Timeout <= 0 {
		c.Recommend.Breaker.Timeout = 30
	}
	if c.Tagger.MaxImageSide <= 0 {
		c.Tagger.MaxImageSide = 1024
	}
	if c.Tagger.MaxLabels <= 0 {
		c.Tagger.MaxLabels = 10
	}
	if c.Tagger.Timeout <= 0 {
		c.Tagger.Timeout = 60
	}
	if c.Tagger.MaxBytes <= 0 {
		c.Tagger.MaxBytes = 20 << 20
	}
	if c.Relay.SendBuffer <= 0 {
		c.Relay.SendBuffer = 256
	}
	if c.Jobs.LikeReconcileSpec == "" {
		c.Jobs.LikeReconcileSpec = "0 */10 * * * *"
	}
	if c.Jobs.LikeReconcileWindow <= 0 {
		c.Jobs.LikeReconcileWindow = 24 * 3600
	}
	if c.Jobs.LikeReconcileLimit <= 0 {
		c.Jobs.LikeReconcileLimit = 500
	}
}
