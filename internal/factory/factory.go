package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mcoot/bouncetimer/internal/dependencies/clock"
	"github.com/mcoot/bouncetimer/internal/dependencies/random"
	"github.com/mcoot/bouncetimer/internal/metrics"
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/services/auth"
	"github.com/mcoot/bouncetimer/internal/storage"
	"github.com/mcoot/bouncetimer/internal/storage/file"
	"github.com/mcoot/bouncetimer/internal/storage/memory"
	redisstorage "github.com/mcoot/bouncetimer/internal/storage/redis"
	"github.com/mcoot/bouncetimer/internal/store"
	"github.com/mcoot/bouncetimer/internal/syncbridge"
	"github.com/mcoot/bouncetimer/internal/timer"
	"github.com/mcoot/bouncetimer/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeFile   = "file"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger

	// Services
	Store       *store.Store
	Bridge      *syncbridge.Bridge
	Monitor     *timer.Monitor
	Metrics     *metrics.Metrics
	AuthService *auth.Service
	Hub         *sse.Hub
	Broadcaster *sse.Broadcaster

	mu            sync.Mutex
	started       bool
	stopObserving func()
	hubDone       chan struct{}
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If it has no operators, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "file" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// StoreFile is the JSON document path for the file backend
	StoreFile string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var st storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		st = memory.New()
	case StorageTypeFile:
		fileStore, err := file.New(cfg.StoreFile, logger)
		if err != nil {
			return nil, err
		}
		st = fileStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		st = redisStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'file' or 'redis'", storageType)
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if len(authCfg.Operators) == 0 {
		authCfg.Operators = auth.DefaultConfig().Operators
	}

	app, err := newWithDependencies(st, clock.New(), random.New(), authCfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	app.StorageType = storageType
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(st storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, logger *slog.Logger) (*App, error) {
	authService, err := auth.New(clk, rnd, authCfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	playerStore := store.New(st, clk, rnd, logger)
	bridge := syncbridge.New(playerStore, st, m, logger)
	monitor := timer.NewMonitor(playerStore, clk, logger, func(p model.Player) {
		m.Expired()
		logger.Info("player time up", slog.String("player_id", string(p.ID)), slog.String("name", p.Name))
	})
	hub := sse.NewHub(logger, m)
	broadcaster := sse.NewBroadcaster(hub, sse.NewRenderer(playerStore), bridge, logger)

	return &App{
		Storage:     st,
		StorageType: StorageTypeMemory,
		Clock:       clk,
		Random:      rnd,
		Logger:      logger,
		Store:       playerStore,
		Bridge:      bridge,
		Monitor:     monitor,
		Metrics:     m,
		AuthService: authService,
		Hub:         hub,
		Broadcaster: broadcaster,
	}, nil
}

// Start loads the persisted players and starts the background components:
// the hub loop, the change broadcaster and the expiry monitor.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}

	if err := a.Store.Load(ctx); err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	a.Metrics.ObserveEvent(model.ChangeEvent{Action: model.ActionLoad, Players: a.Store.List()})
	a.stopObserving = a.Store.Subscribe(a.Metrics.ObserveEvent)

	a.hubDone = make(chan struct{})
	go func() {
		defer close(a.hubDone)
		a.Hub.Run()
	}()

	if err := a.Broadcaster.Start(ctx); err != nil {
		a.stopObserving()
		a.Hub.Close()
		<-a.hubDone
		return fmt.Errorf("start broadcaster: %w", err)
	}
	a.Monitor.Start(ctx)

	a.started = true
	a.Logger.Info("application started",
		slog.String("storage", a.StorageType),
		slog.Int("players", a.Store.CountTotal()))
	return nil
}

// Close stops the background components and releases the storage
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		a.Monitor.Stop()
		a.Broadcaster.Stop()
		a.stopObserving()
		a.Hub.Close()
		<-a.hubDone
		a.started = false
	}
	return a.Storage.Close()
}
