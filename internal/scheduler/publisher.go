// Package scheduler 定时发布到期的文章。
package scheduler

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const lockKey = "nnews:scheduler:publish"

// ScheduledArticles 是定时发布的执行者，service.ArticleService 实现了它。
type ScheduledArticles interface {
	PublishScheduledArticles(ctx context.Context) (int, error)
}

// Locker 保证多个实例部署时同一轮只有一个实例执行发布。
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type redisLocker struct {
	rdb *redis.Client
}

// NewRedisLocker 基于 SETNX 实现 Locker。锁不主动释放，靠 TTL 过期，
// 所以 TTL 应略小于执行间隔。
func NewRedisLocker(rdb *redis.Client) Locker {
	return &redisLocker{rdb: rdb}
}

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// Publisher 按固定间隔调用 PublishScheduledArticles。
type Publisher struct {
	articles ScheduledArticles
	locker   Locker
	interval time.Duration
	lockTTL  time.Duration
	logger   *zap.SugaredLogger
}

// NewPublisher 创建 Publisher。locker 为 nil 时每一轮都直接执行。
func NewPublisher(articles ScheduledArticles, locker Locker, interval, lockTTL time.Duration, logger *zap.SugaredLogger) *Publisher {
	if interval <= 0 {
		interval = time.Minute
	}
	if lockTTL <= 0 || lockTTL >= interval {
		lockTTL = interval * 5 / 6
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Publisher{
		articles: articles,
		locker:   locker,
		interval: interval,
		lockTTL:  lockTTL,
		logger:   logger,
	}
}

// Run 阻塞运行直到 ctx 被取消。
func (p *Publisher) Run(ctx context.Context) {
	p.logger.Infow("scheduled publisher started", "interval", p.interval.String())
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Infow("scheduled publisher stopped")
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce 执行一轮发布，返回本轮发布的文章数量。没有拿到锁时返回 0。
func (p *Publisher) RunOnce(ctx context.Context) int {
	if p.locker != nil {
		ok, err := p.locker.TryLock(ctx, lockKey, p.lockTTL)
		if err != nil {
			p.logger.Warnw("acquire scheduler lock failed", "error", err)
			return 0
		}
		if !ok {
			p.logger.Debugw("scheduler lock held by another instance")
			return 0
		}
	}

	n, err := p.articles.PublishScheduledArticles(ctx)
	if err != nil {
		p.logger.Errorw("publish scheduled articles failed", "published", n, "error", err)
	}
	if n > 0 {
		p.logger.Infow("scheduled articles published", "count", n)
	}
	return n
}
