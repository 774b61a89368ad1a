package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jobwatch/internal/adapters/http/api"
	"jobwatch/internal/adapters/notify"
	"jobwatch/internal/adapters/repository"
	"jobwatch/internal/adapters/source"
	app "jobwatch/internal/app"
	"jobwatch/internal/config"
	"jobwatch/internal/domain/match"
	"jobwatch/internal/scheduler"
	"jobwatch/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	once := flag.Bool("once", false, "run one watch cycle and exit")
	testNotify := flag.Bool("test-notify", false, "send a test notification to every channel and exit")
	testScrape := flag.Bool("test-scrape", false, "fetch every source once, print counts and exit")
	flag.Parse()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.Error(ctx, "creating database directory failed", logger.Error(err))
		os.Exit(1)
	}
	store, err := repository.Open(cfg.DatabasePath)
	if err != nil {
		log.Error(ctx, "opening posting store failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	engine := match.New(ctx, match.Criteria{
		Include:          cfg.Keywords.Include,
		Exclude:          cfg.Keywords.Exclude,
		Locations:        cfg.Keywords.Locations,
		ExperienceLevels: cfg.Keywords.ExperienceLevels,
		Mode:             cfg.Matching.Mode,
		FuzzyThreshold:   cfg.Matching.FuzzyThreshold,
		CaseSensitive:    cfg.Matching.CaseSensitive,
	}, match.WithLogger(log.Named("match")))

	sources := source.Build(ctx, cfg.Sources, log.Named("source"))
	channels := notify.Build(ctx, cfg.Notifications, log.Named("notify"))

	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithEngine(engine),
		app.WithSources(sources),
		app.WithChannels(channels),
	)

	switch {
	case *testNotify:
		if err := svc.SendTest(ctx); err != nil {
			os.Exit(1)
		}
		return
	case *testScrape:
		results, postings := svc.Scrape(ctx)
		for _, res := range results {
			log.Info(ctx, "source checked",
				logger.String("source", res.Source),
				logger.Int("scraped", res.Scraped),
				logger.String("error", res.Err),
			)
		}
		// Show match decisions without persisting anything.
		matched := 0
		for _, p := range postings {
			if !p.Valid() || !engine.Matches(p) {
				continue
			}
			matched++
			log.Info(ctx, "would match",
				logger.String("company", p.Company),
				logger.String("title", p.Title),
				logger.String("url", p.URL),
			)
		}
		log.Info(ctx, "scrape test finished",
			logger.Int("total", len(postings)),
			logger.Int("matched", matched),
		)
		return
	case *once:
		report, err := svc.RunCycle(ctx)
		if err != nil {
			log.Error(ctx, "watch cycle failed", logger.Error(err))
			os.Exit(1)
		}
		log.Info(ctx, "watch cycle finished",
			logger.String("cycle", report.CycleID),
			logger.Int("new", report.New),
			logger.Int("notified", report.Notified),
		)
		return
	}

	sched := scheduler.New(svc, cfg.IntervalMinutes, log.Named("scheduler"))
	if err := sched.Start(ctx); err != nil {
		log.Error(ctx, "starting scheduler failed", logger.Error(err))
		os.Exit(1)
	}
	defer sched.Stop()

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "stopped")
}
