package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/pkg/models"
)

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	Channel    string
	CurrentKey string
	Timeout    time.Duration
}

// RedisSink publishes every record on a pub/sub channel and mirrors the
// displayed alert under a key so late subscribers can catch up.
type RedisSink struct {
	client     *redis.Client
	channel    string
	currentKey string
}

func NewRedisSink(cfg RedisConfig) (*RedisSink, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  time.Second,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"addr":    cfg.Addr,
		"channel": cfg.Channel,
	}).Info("Connected to Redis alert sink")

	return NewRedisSinkFromClient(client, cfg), nil
}

func NewRedisSinkFromClient(client *redis.Client, cfg RedisConfig) *RedisSink {
	return &RedisSink{
		client:     client,
		channel:    cfg.Channel,
		currentKey: cfg.CurrentKey,
	}
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Publish(ctx context.Context, rec *models.AlertRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode alert record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if s.currentKey != "" {
			switch rec.Kind {
			case models.EventTypeAlertChanged:
				pipe.Set(ctx, s.currentKey, payload, 0)
			case models.EventTypeAlertCleared:
				pipe.Del(ctx, s.currentKey)
			}
		}
		pipe.Publish(ctx, s.channel, payload)
		return nil
	})
	return err
}

// Current returns the mirrored alert, or nil when nothing is displayed.
func (s *RedisSink) Current(ctx context.Context) (*models.AlertRecord, error) {
	data, err := s.client.Get(ctx, s.currentKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec models.AlertRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode alert record: %w", err)
	}
	return &rec, nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
