package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Writes are announced on a pub/sub channel so every server sharing the
// Redis instance observes them.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, snapshotKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Storage) Save(ctx context.Context, data []byte) error {
	// Use a transaction so the write and its announcement go out together
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, snapshotKey(), data, s.cfg.SnapshotTTL)
	pipe.Publish(ctx, changesChannel(), data)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) Watch(ctx context.Context, fn storage.ChangeHandler) (func(), error) {
	pubsub := s.client.Subscribe(ctx, changesChannel())

	// Wait for the subscription to be confirmed so no write is missed after Watch returns
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	messages := pubsub.Channel()
	go func() {
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				fn([]byte(msg.Payload))
			case <-done:
				return
			case <-ctx.Done():
				stop()
				return
			}
		}
	}()

	return stop, nil
}
