package kafka

import (
	"Lumen/internal/api/config"
	"Lumen/internal/pkg/mq"
	"context"
	stderrors "errors"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

// Broker 基于 Kafka 的 mq.Broker 实现
type Broker struct {
	cfg       config.KafkaConfig
	saramaCfg *sarama.Config
	client    sarama.Client
	producer  sarama.SyncProducer
	admin     sarama.ClusterAdmin
}

func NewBroker(cfg config.KafkaConfig) (*Broker, error) {
	saramaCfg := newSaramaConfig(cfg)

	client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka client")
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "create kafka producer")
	}
	admin, err := sarama.NewClusterAdminFromClient(client)
	if err != nil {
		_ = producer.Close()
		_ = client.Close()
		return nil, errors.Wrap(err, "create kafka admin")
	}

	log.Info("Kafka broker connected", "brokers", cfg.Brokers)
	return &Broker{
		cfg:       cfg,
		saramaCfg: saramaCfg,
		client:    client,
		producer:  producer,
		admin:     admin,
	}, nil
}

// Declare 创建不存在的 topic（含死信 topic）
func (s *Broker) Declare(_ context.Context, queues ...string) error {
	existing, err := s.admin.ListTopics()
	if err != nil {
		return errors.Wrap(err, "list topics")
	}

	partitions := s.cfg.Topic.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	replication := s.cfg.Topic.ReplicationFactor
	if replication <= 0 {
		replication = 1
	}

	for _, q := range queues {
		for _, name := range []string{q, mq.DeadLetterQueue(q)} {
			if _, ok := existing[name]; ok {
				continue
			}
			err = s.admin.CreateTopic(name, &sarama.TopicDetail{
				NumPartitions:     partitions,
				ReplicationFactor: replication,
			}, false)
			var topicErr *sarama.TopicError
			if stderrors.As(err, &topicErr) && topicErr.Err == sarama.ErrTopicAlreadyExists {
				continue
			}
			if err != nil {
				return errors.Wrapf(err, "create topic %s", name)
			}
			log.Info("Kafka topic created", "topic", name)
		}
	}
	return nil
}

// Publish 同步发送，RequiredAcks=WaitForAll 时返回即代表已被确认
func (s *Broker) Publish(_ context.Context, queue string, body []byte) error {
	_, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: queue,
		Value: sarama.ByteEncoder(body),
	})
	return errors.Wrapf(err, "publish to %s", queue)
}

// Consume 以消费组方式消费，group id 为 <group_id>.<queue>
func (s *Broker) Consume(ctx context.Context, queue string, concurrency int, handler mq.HandlerFunc) error {
	if concurrency < 1 {
		concurrency = 1
	}
	groupID := s.cfg.GroupID + "." + queue
	group, err := sarama.NewConsumerGroup(s.cfg.Brokers, groupID, s.saramaCfg)
	if err != nil {
		return errors.Wrapf(err, "create consumer group %s", groupID)
	}
	defer func() {
		if err := group.Close(); err != nil {
			log.Error("Failed to close consumer group", "group", groupID, "err", err)
		}
	}()

	go func() {
		for err := range group.Errors() {
			log.Error("Error from consumer group", "group", groupID, "err", err)
		}
	}()

	h := &groupHandler{
		queue:      queue,
		batchSize:  concurrency,
		handler:    handler,
		deadLetter: s.Publish,
	}

	log.Info("Kafka consumer started", "topic", queue, "group", groupID, "concurrency", concurrency)
	for {
		if err := group.Consume(ctx, []string{queue}, h); err != nil {
			if stderrors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			log.Error("Error from consumer", "topic", queue, "err", err)
			mq.Sleep(ctx, time.Second)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *Broker) Close() error {
	var errs []error
	if err := s.producer.Close(); err != nil {
		errs = append(errs, err)
	}
	// admin 关闭时会一并关闭底层 client
	if err := s.admin.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.client.Close(); err != nil && !stderrors.Is(err, sarama.ErrClosedClient) {
		errs = append(errs, err)
	}
	return stderrors.Join(errs...)
}
