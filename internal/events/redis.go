package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisConfig holds connection settings for the Redis event publisher
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

// RedisPublisher mirrors bus events onto a Redis list so external
// consumers (dashboards, campus-wide monitoring) can drain them.
type RedisPublisher struct {
	client *redis.Client
	queue  string
	logger *logrus.Logger
}

// NewRedisPublisher creates a publisher and verifies the connection
func NewRedisPublisher(cfg RedisConfig, logger *logrus.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPublisher{
		client: client,
		queue:  cfg.Queue,
		logger: logger,
	}, nil
}

// Run drains the subscription until the context is cancelled or the bus
// closes. Publish failures are logged and the event is dropped; the bus
// is best-effort by contract.
func (p *RedisPublisher) Run(ctx context.Context, sub <-chan Event) {
	p.logger.WithField("queue", p.queue).Info("Redis event publisher started")

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			if err := p.publish(ctx, event); err != nil {
				p.logger.WithError(err).WithField("event_type", event.Type).Error("Failed to publish event to Redis")
			}
		}
	}
}

func (p *RedisPublisher) publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.client.LPush(ctx, p.queue, data).Err()
}

// QueueLength returns the number of undrained events
func (p *RedisPublisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.queue).Result()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
