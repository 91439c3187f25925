// Package kafka 提供了与 Kafka 消息队列交互的功能：发布和消费文章事件。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"nnews-go/internal/config"
	"nnews-go/pkg/events"
	"nnews-go/pkg/log"
)

// maxAttempts 是同一条消息处理失败多少次后放弃重试。
const maxAttempts = 3

var retryBackoff = time.Second

// EventHandler 处理一条文章事件。
// 它把 Kafka 消费者和具体的索引逻辑解耦。
type EventHandler interface {
	Handle(ctx context.Context, event events.ArticleEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AttemptCounter 记录消息的失败次数。
type AttemptCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

func brokerList(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Producer 把文章事件写入 Kafka，实现了 service.EventPublisher。
type Producer struct {
	writer messageWriter
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokerList(cfg.Brokers)...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// Publish 发送一个文章事件。同一篇文章的事件使用相同的 key，进入同一个分区。
func (p *Producer) Publish(ctx context.Context, event events.ArticleEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
	})
}

// Close 关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// redisAttempts 使用 Redis 计数失败次数，计数 24 小时后过期。
type redisAttempts struct {
	rdb *redis.Client
}

// NewRedisAttemptCounter 创建基于 Redis 的失败计数器。
func NewRedisAttemptCounter(rdb *redis.Client) AttemptCounter {
	return &redisAttempts{rdb: rdb}
}

func (r *redisAttempts) Incr(ctx context.Context, key string) (int64, error) {
	attempts, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = r.rdb.Expire(ctx, key, 24*time.Hour).Err()
	return attempts, nil
}

func (r *redisAttempts) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// Consumer 消费文章事件并交给 EventHandler 处理。
type Consumer struct {
	reader   messageReader
	attempts AttemptCounter
	handler  EventHandler
}

// NewConsumer 创建一个 Kafka 消费者。
func NewConsumer(cfg config.KafkaConfig, attempts AttemptCounter, handler EventHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokerList(cfg.Brokers),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: r, attempts: attempts, handler: handler}
}

// Run 持续消费消息直到 ctx 被取消。
// 某条消息的处理结果无法确认时返回错误并停止消费：
// 继续提交后面的 offset 会把这条消息一并确认掉。
func (c *Consumer) Run(ctx context.Context) error {
	log.Infof("Kafka 消费者已启动")
	var runErr error
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Errorf("从 Kafka 读取消息失败: %v", err)
			}
			break
		}
		if err := c.handleMessage(ctx, m); err != nil {
			runErr = err
			break
		}
	}

	if err := c.reader.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
	log.Info("Kafka 消费者已停止")
	return runErr
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}

func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) error {
	var event events.ArticleEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		// 消息格式错误，直接提交，避免阻塞队列
		c.commit(ctx, m)
		return nil
	}

	// 同一个消费者组内，未提交的消息不会被 FetchMessage 再次返回，所以失败时在本地重试；
	// 计数放在 Redis 里，进程重启后重放的消息会沿用之前的次数。
	attemptsKey := fmt.Sprintf("kafka:attempts:%s:%d", event.Key(), m.Offset)
	for {
		err := c.handler.Handle(ctx, event)
		if err == nil {
			_ = c.attempts.Reset(ctx, attemptsKey)
			c.commit(ctx, m)
			return nil
		}
		log.Errorf("处理文章事件失败: Type=%s, ArticleID=%d, Error: %v", event.Type, event.ArticleID, err)

		attempts, incErr := c.attempts.Incr(ctx, attemptsKey)
		if incErr != nil {
			// 不提交 offset 并停止消费，重启后从这条消息重新开始
			return fmt.Errorf("record attempts for offset %d: %w", m.Offset, incErr)
		}
		if attempts >= maxAttempts {
			log.Errorf("文章事件多次失败(>=%d)，提交 offset 终止重试: ArticleID=%d", maxAttempts, event.ArticleID)
			_ = c.attempts.Reset(ctx, attemptsKey)
			c.commit(ctx, m)
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryBackoff * time.Duration(attempts)):
		}
	}
}
