// Package app assembles storage, services and transports from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nilelabs/labs/internal/cache"
	"github.com/nilelabs/labs/internal/config"
	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/mcp"
	"github.com/nilelabs/labs/internal/memory"
	"github.com/nilelabs/labs/internal/postgres"
	"github.com/nilelabs/labs/internal/repository"
	"github.com/nilelabs/labs/internal/rpc"
	"github.com/nilelabs/labs/internal/seed"
	"github.com/nilelabs/labs/internal/sqlite"
	"github.com/nilelabs/labs/internal/transport"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// App holds the wired services of one server instance.
type App struct {
	Config      config.Config
	Users       *user.Service
	Activity    *activity.Service
	Experiments *experiment.Service
	Handler     *rpc.Handler
	MCP         *sdkmcp.Server

	logger *slog.Logger
	close  func() error
}

type options struct {
	now func() time.Time
}

// Option configures New.
type Option func(*options)

// WithClock overrides the clock used by services and seeding.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type stores struct {
	users       user.Repository
	userWriter  seed.UserWriter
	experiments experiment.Repository
	activity    activity.Repository
	tx          repository.Transactor
	close       func() error
}

// New opens storage, seeds it when configured and builds every service.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Seed {
		if err := seedIfEmpty(ctx, st, o.now(), logger); err != nil {
			_ = st.close()
			return nil, err
		}
	}

	// The cache wraps reads only after seeding so the emptiness check sees
	// the store itself.
	userRepo := st.users
	if cfg.Cache.RedisAddr != "" {
		userRepo, err = attachUserCache(ctx, cfg.Cache, st, logger)
		if err != nil {
			_ = st.close()
			return nil, err
		}
	}

	users := user.NewService(userRepo, logger)
	activitySvc := activity.NewService(st.activity, users, logger, activity.WithClock(o.now))
	experiments := experiment.NewService(st.experiments, users, activitySvc, st.tx, logger, experiment.WithClock(o.now))
	handler := rpc.NewHandler(experiments, activitySvc, users, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Handler:      handler,
		Actors:       transport.NewUserResolver(users),
		DefaultActor: cfg.Auth.DefaultActor,
		Version:      Version,
		Logger:       logger,
	})

	return &App{
		Config:      cfg,
		Users:       users,
		Activity:    activitySvc,
		Experiments: experiments,
		Handler:     handler,
		MCP:         mcpServer,
		logger:      logger,
		close:       st.close,
	}, nil
}

// HTTPHandler returns the router serving /rpc, /mcp, /health and /metrics.
func (a *App) HTTPHandler() http.Handler {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return a.MCP },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)
	return transport.NewServer(a.Handler, transport.Options{
		Actors:       transport.NewUserResolver(a.Users),
		DefaultActor: a.Config.Auth.DefaultActor,
		MCP:          mcpHandler,
		Logger:       a.logger,
	})
}

// Close releases storage.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.StorageMemory, "":
		store := memory.New()
		logger.Info("using in-memory storage")
		return &stores{
			users:       store.Users(),
			userWriter:  store.Users(),
			experiments: store.Experiments(),
			activity:    store.Activity(),
			tx:          store,
			close:       func() error { return nil },
		}, nil
	case config.StorageSQLite:
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite storage", "path", cfg.Path)
		users := sqlite.NewUserRepository(db)
		return &stores{
			users:       users,
			userWriter:  users,
			experiments: sqlite.NewExperimentRepository(db),
			activity:    sqlite.NewActivityRepository(db),
			tx:          db,
			close:       db.Close,
		}, nil
	case config.StoragePostgres:
		db, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres storage")
		users := postgres.NewUserRepository(db)
		return &stores{
			users:       users,
			userWriter:  users,
			experiments: postgres.NewExperimentRepository(db),
			activity:    postgres.NewActivityRepository(db),
			tx:          db,
			close:       db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// OpenPostgres connects to dsn and applies the embedded migrations.
func OpenPostgres(ctx context.Context, dsn string) (*postgres.DB, error) {
	db, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// attachUserCache fronts the user repository with Redis. Entries left by
// an earlier process are purged because the store may have changed.
func attachUserCache(ctx context.Context, cfg config.CacheConfig, st *stores, logger *slog.Logger) (user.Repository, error) {
	client, err := cache.Dial(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	dir := cache.NewUserDirectory(client, st.users, cfg.TTL, logger)
	if err := dir.Purge(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	closeStore := st.close
	st.close = func() error {
		return errors.Join(client.Close(), closeStore())
	}
	logger.Info("caching users in redis", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	return dir, nil
}

// OpenSQLite opens the database at path and applies the embedded migrations.
func OpenSQLite(path string) (*sqlite.DB, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// seedIfEmpty loads the demo dataset unless the user directory already has
// entries, so restarts against a persistent database are safe.
func seedIfEmpty(ctx context.Context, st *stores, now time.Time, logger *slog.Logger) error {
	existing, err := st.users.List(ctx)
	if err != nil {
		return fmt.Errorf("checking existing users: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("skipping seed, storage already populated", "users", len(existing))
		return nil
	}
	err = seed.Load(ctx, seed.Target{
		Users:       st.userWriter,
		Experiments: st.experiments,
		Activity:    st.activity,
		Tx:          st.tx,
	}, now)
	if err != nil {
		return fmt.Errorf("seeding storage: %w", err)
	}
	logger.Info("seeded demo data")
	return nil
}

func ensureDBDir(path string) error {
	if path == "" {
		return errors.New("empty database path")
	}
	if path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
