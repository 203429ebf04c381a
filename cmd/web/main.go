package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bharath-k9/Analytics-dashboard/internal/config"
	"github.com/bharath-k9/Analytics-dashboard/internal/format"
	"github.com/bharath-k9/Analytics-dashboard/internal/geo"
	"github.com/bharath-k9/Analytics-dashboard/internal/handlers"
	"github.com/bharath-k9/Analytics-dashboard/internal/middleware"
	"github.com/bharath-k9/Analytics-dashboard/internal/observability"
	"github.com/bharath-k9/Analytics-dashboard/internal/server"
	"github.com/bharath-k9/Analytics-dashboard/internal/services"
	"github.com/bharath-k9/Analytics-dashboard/internal/source"
	"github.com/bharath-k9/Analytics-dashboard/internal/ui/templates"
	"github.com/bharath-k9/Analytics-dashboard/internal/view"
)

const (
	renderTimeout  = 10 * time.Second
	connectTimeout = 15 * time.Second
	cacheMaxAge    = "no-cache"
	dashboardTitle = "E-commerce Analytics"
)

// newDashboardHandler serves the page shell. Year options come from the
// current snapshot, so a page requested mid-load renders placeholders only.
func newDashboardHandler(analytics *services.Analytics, display config.DisplayConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		raw := r.URL.Query().Get("year")
		if raw == "" {
			raw = display.DefaultYear
		}
		sel, err := view.ParseYear(raw)
		if err != nil {
			sel = view.All
		}

		snap := analytics.Snapshot()
		props := templates.DashboardProps{
			Title:        dashboardTitle,
			SelectedYear: sel.String(),
			Years:        snap.View.AvailableYears,
			Currency:     display.Currency,
			Ready:        snap.Ready(),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(props).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newQuerier opens the configured backend. The returned close function is
// never nil.
func newQuerier(ctx context.Context, cfg config.SourceConfig) (source.Querier, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		q, err := source.NewPostgresQuerier(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return q, q.Close, nil
	case config.DriverFixtures:
		return source.NewFixtureQuerier(cfg.FixturesDir), func() {}, nil
	case config.DriverREST:
		return source.NewRESTQuerier(cfg.URL, cfg.APIKey), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown source driver %q", cfg.Driver)
	}
}

func loadRegions(path string, logger *slog.Logger) []geo.Region {
	if path == "" {
		logger.Warn("no geo file configured, map will be empty")
		return nil
	}
	regions, err := geo.Load(path)
	if err != nil {
		logger.Error("failed to load geo file, map will be empty", "path", path, "error", err)
		return nil
	}
	logger.Info("geo regions loaded", "path", path, "regions", len(regions))
	return regions
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter, err := format.New(cfg.Display.Currency, cfg.Display.Locale)
	if err != nil {
		logger.Error("invalid display settings", "error", err)
		os.Exit(1)
	}

	querier, closeQuerier, err := newQuerier(ctx, cfg.Source)
	if err != nil {
		logger.Error("failed to open data source", "driver", cfg.Source.Driver, "error", err)
		os.Exit(1)
	}
	defer closeQuerier()

	aggregator := source.NewAggregator(querier, source.AggregatorOptions{
		Timeout:     cfg.Source.Timeout,
		Concurrency: cfg.Source.Concurrency,
	}, logger)

	analytics := services.NewAnalytics(aggregator, services.Options{
		LoadTimeout: cfg.Source.LoadTimeout,
	}, logger)

	// The first load runs in the background; the page and the API report
	// "loading" until it commits.
	analytics.Start(ctx)

	regions := loadRegions(cfg.Geo.File, logger)

	apiHandlers := handlers.NewAPIHandlers(analytics, regions, cfg.Display, formatter, logger)
	sseHandlers := handlers.NewSSEHandlers(analytics, regions, cfg.Display, formatter, logger)
	templateHandlers := &server.TemplateHandlers{
		Dashboard: newDashboardHandler(analytics, cfg.Display),
	}

	srv := server.NewServer(apiHandlers, sseHandlers, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		analytics.Close()
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
