package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booksy/internal/api"
	"booksy/internal/config"
	"booksy/internal/countries"
	"booksy/internal/database"
	"booksy/internal/imagestore"
	"booksy/internal/location"
	"booksy/internal/session"
	"booksy/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const usage = `usage: booksy <command> [flags] [args]

commands:
  login          -email -password
  signup         -name -email -password -confirm
  logout
  books          [-q query] [-category name] [-categories]
  book           <bookId>
  add-to-cart    <bookId>
  cart
  remove         <itemId>
  clear-cart
  checkout       -name -address -region -phone [-locate]
  profile        [-refresh]
  profile-image  <path>
  country        [-name name | -code code]
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	out       io.Writer
	sessions  session.Store
	images    imagestore.Store
	client    api.Client
	countries *countries.Client
	locator   location.Provider
	registry  *prometheus.Registry
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)

	// Cancel in-flight requests on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize tracing before any instrumented HTTP client is built
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	// Initialize session store
	sessions, closeSessions, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer closeSessions()

	// Initialize image storage with S3 and local fallback
	images, err := newImageStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}

	// Initialize location provider
	locator, err := location.NewProvider(
		cfg.Location.Provider,
		cfg.Location.LookupURL,
		cfg.Location.Latitude,
		cfg.Location.Longitude,
		time.Duration(cfg.Location.TimeoutSecs)*time.Second,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize location provider: %w", err)
	}

	registry := prometheus.NewRegistry()

	// Initialize API client authenticated from the session store
	client := api.New(api.Config{
		BaseURL:   cfg.API.Endpoint(),
		APIKey:    cfg.API.APIKey,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
	}, func(ctx context.Context) (string, error) {
		s, err := sessions.Load(ctx)
		if err != nil {
			return "", err
		}
		return s.Token, nil
	}, api.NewMetrics(registry), logger)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		out:       out,
		sessions:  sessions,
		images:    images,
		client:    client,
		countries: countries.New(cfg.Countries.BaseURL, cfg.Countries.Timeout, logger),
		locator:   locator,
		registry:  registry,
	}
	defer a.logMetrics()

	return a.dispatch(ctx, args[0], args[1:])
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (session.Store, func(), error) {
	switch cfg.Session.Backend {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := session.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return session.NewPostgresStore(pool, cfg.Session.Namespace, logger), closePool(pool), nil

	default:
		path, err := cfg.Session.FilePath()
		if err != nil {
			return nil, nil, err
		}
		logger.Debug().Str("file", path).Msg("using file session store")
		return session.NewFileStore(path, logger), func() {}, nil
	}
}

func closePool(pool *pgxpool.Pool) func() {
	return func() { pool.Close() }
}

func newImageStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (imagestore.Store, error) {
	dir, err := cfg.Storage.Dir()
	if err != nil {
		return nil, err
	}
	local := imagestore.NewLocalStore(dir, logger)

	if !cfg.Storage.S3.Enabled {
		logger.Debug().Msg("using local file system for profile images (S3 disabled)")
		return local, nil
	}

	remote, err := imagestore.NewS3Store(ctx, cfg.Storage.S3.Bucket, cfg.Storage.S3.Region, cfg.Storage.S3.Prefix, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 image store, falling back to local file system only")
		return local, nil
	}

	return imagestore.NewFallbackStore(remote, local, true, logger), nil
}

// logMetrics reports the request counters gathered during the command.
func (a *app) logMetrics() {
	if a.logger.GetLevel() > zerolog.DebugLevel {
		return
	}

	families, err := a.registry.Gather()
	if err != nil {
		a.logger.Debug().Err(err).Msg("failed to gather metrics")
		return
	}

	for _, family := range families {
		for _, m := range family.GetMetric() {
			event := a.logger.Debug().Str("metric", family.GetName())
			for _, label := range m.GetLabel() {
				event = event.Str(label.GetName(), label.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				event = event.Float64("value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				event = event.
					Uint64("count", m.GetHistogram().GetSampleCount()).
					Float64("sum_seconds", m.GetHistogram().GetSampleSum())
			}
			event.Msg("client metrics")
		}
	}
}
