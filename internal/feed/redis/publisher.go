package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/playerregistry/internal/feed"
	"github.com/mcoot/playerregistry/internal/model"
)

// Publisher forwards registry change events to a Redis pub/sub channel.
// Notify only enqueues; a single worker performs the network calls in order.
type Publisher struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger

	events    chan model.ChangeEvent
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	published atomic.Int64
	dropped   atomic.Int64
}

// Ensure Publisher implements the notifier interface
var _ feed.Notifier = (*Publisher)(nil)

// New connects to Redis and starts the publishing worker
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient creates a Publisher around an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Publisher {
	defaults := DefaultConfig()
	if cfg.Channel == "" {
		cfg.Channel = defaults.Channel
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaults.PublishTimeout
	}

	p := &Publisher{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "feed_redis")),
		events: make(chan model.ChangeEvent, cfg.BufferSize),
		quit:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Notify enqueues an event for publishing without blocking
func (p *Publisher) Notify(_ context.Context, event model.ChangeEvent) {
	select {
	case <-p.quit:
		return
	default:
	}

	select {
	case p.events <- event:
	default:
		p.dropped.Add(1)
		p.logger.Warn("feed buffer full, dropping event",
			slog.String("type", string(event.Type)),
			slog.Int64("player_id", int64(event.Player.ID)))
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.events:
			p.publish(event)
		case <-p.quit:
			// Flush whatever was queued before Close
			for {
				select {
				case event := <-p.events:
					p.publish(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) publish(event model.ChangeEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode change event", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.PublishTimeout)
	defer cancel()

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, p.cfg.Channel, data)
		pipe.Set(ctx, lastEventKey(), data, 0)
		pipe.Incr(ctx, eventCountKey())
		return nil
	})
	if err != nil {
		p.logger.Error("failed to publish change event",
			slog.String("channel", p.cfg.Channel),
			slog.Any("error", err))
		return
	}
	p.published.Add(1)
}

// Published returns the number of events successfully published
func (p *Publisher) Published() int64 {
	return p.published.Load()
}

// Dropped returns the number of events discarded because the buffer was full
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close flushes queued events, stops the worker and closes the Redis connection
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.quit)
		p.wg.Wait()
		err = p.client.Close()
	})
	return err
}
