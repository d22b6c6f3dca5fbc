// Package app assembles the store, domain services and HTTP surfaces from a
// Config and runs the server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	goredislib "github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/fintrack/internal/access"
	"github.com/mmynk/fintrack/internal/api"
	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/config"
	"github.com/mmynk/fintrack/internal/group"
	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/lock"
	"github.com/mmynk/fintrack/internal/metrics"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/proposal"
	"github.com/mmynk/fintrack/internal/service"
	"github.com/mmynk/fintrack/internal/storage"
	"github.com/mmynk/fintrack/internal/storage/postgres"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
	pb "github.com/mmynk/fintrack/pkg/fintrackv1"
)

// App holds everything the server needs for its lifetime.
type App struct {
	Config   *config.Config
	Store    storage.Store
	Sessions *auth.Sessions
	Metrics  *metrics.Metrics

	handler http.Handler
	redis   *goredislib.Client
	logger  *slog.Logger
}

// OpenStore opens the configured database. The sqlite store migrates on
// open; the postgres store is migrated here.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		pc := postgres.DefaultPoolConfig()
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		store, err := postgres.Connect(ctx, cfg.URL, pc)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// New opens the store and wires the services behind both HTTP surfaces.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "driver", cfg.Database.Driver)

	a := &App{
		Config:  cfg,
		Store:   store,
		Metrics: metrics.New(),
		logger:  logger,
	}

	var locker lock.Locker = lock.Noop{}
	if cfg.Redis.Addr != "" {
		client, err := lock.Dial(ctx, cfg.Redis.Addr)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.redis = client

		lockOpts := lock.DefaultOptions()
		if cfg.Redis.LockExpiry > 0 {
			lockOpts.Expiry = cfg.Redis.LockExpiry
		}
		locker = lock.NewRedis(client, lockOpts)
		logger.Info("Distributed proposal lock enabled", "redis_addr", cfg.Redis.Addr)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.Sessions = auth.NewSessions(auth.NewPasswordAuthenticator(store), store, jwtManager, logger)
	engine := proposal.NewEngine(store, access.NewChecker(store),
		proposal.WithLocker(locker),
		proposal.WithRecorder(a.Metrics),
		proposal.WithLogger(logger),
	)

	rest := api.New(api.Deps{
		Sessions:  a.Sessions,
		JWT:       jwtManager,
		Groups:    group.NewService(store),
		Proposals: engine,
		Ledger:    ledger.NewService(store),
		Metrics:   a.Metrics,
		Logger:    logger,
	})

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, pb.PublicProcedures...),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(pb.NewAuthServiceHandler(service.NewAuthService(a.Sessions, logger), interceptors))
	mux.Handle(pb.NewProposalServiceHandler(service.NewProposalService(engine), interceptors))
	mux.Handle("/metrics", a.Metrics.Handler())
	mux.Handle("/", adaptor.FiberApp(rest))

	// h2c serves HTTP/2 without TLS, which Connect's gRPC protocol needs.
	a.handler = h2c.NewHandler(middleware.Logging(middleware.CORS(mux)), &http2.Server{})
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Serve listens on the configured address until ctx is cancelled, then
// drains in-flight requests for up to the shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      a.handler,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	a.logger.Info("Server shutting down", "timeout", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the store and the Redis client.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}
