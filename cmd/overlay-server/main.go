package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/analysis"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/redisstore"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/config"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/health"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/observability"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/router"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/server"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/events"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/logger"
	s2mapper "github.com/mohammed-shakir/pogo-s2-overlay/internal/mapper/s2"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/metrics"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/overlay"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/pogo"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store/cachestore"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store/memstore"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	settingsFile := pflag.String("settings", "", "overlay settings TOML file (overrides SETTINGS_FILE)")
	pflag.Parse()

	// a missing .env is fine; the environment alone may be enough
	_ = godotenv.Load(*envFile)

	cfg := config.FromEnv()
	if *settingsFile != "" {
		cfg.SettingsFile = *settingsFile
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "pogo-s2-overlay",
		Component: "overlay-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	if err := cfg.Validate(); err != nil {
		appLog.Error("invalid configuration", "err", err)
		return 1
	}

	settings := config.DefaultSettings()
	if cfg.SettingsFile != "" {
		s, err := config.LoadSettings(cfg.SettingsFile)
		if err != nil {
			appLog.Error("load settings", "file", cfg.SettingsFile, "err", err)
			return 1
		}
		settings = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{Ready: health.Static(true)}
	if cfg.MetricsEnabled {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.MetricsAddr,
			Path:    "/metrics",
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(p.Registerer(), true)
		observability.ExposeBuildInfo(Version)
		if cfg.MetricsAddr != "" {
			go func() {
				if err := p.Serve(ctx, appLog); err != nil {
					appLog.Error("metrics server exited", "err", err)
				}
			}()
		} else {
			deps.Metrics = p.Handler()
		}
	} else {
		observability.Init(nil, false)
	}

	levels := pogo.Levels{GymCell: cfg.GymCellLevel, PoiCell: cfg.PoiCellLevel, GymCenter: cfg.GymCenterLevel}
	mp := s2mapper.NewWithLimit(cfg.GridMaxCells)

	st, err := openStore(ctx, cfg, mp, levels)
	if err != nil {
		appLog.Error("open store", "driver", cfg.StoreDriver, "err", err)
		return 1
	}
	defer func() { _ = st.Close() }()

	cache, err := analysis.NewCache(cfg.AnalysisCacheSize)
	if err != nil {
		appLog.Error("analysis cache", "err", err)
		return 1
	}

	var sink events.Sink = events.Nop{}
	if cfg.Events.Enabled {
		pub, err := events.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic, cfg.Events.QueueSize, appLog)
		if err != nil {
			appLog.Error("events publisher", "err", err)
			return 1
		}
		defer func() { _ = pub.Close() }()
		sink = pub
	}

	svc, err := overlay.New(overlay.Options{
		Store:         st,
		Mapper:        mp,
		Levels:        levels,
		Cache:         cache,
		Events:        sink,
		Settings:      settings,
		ImportWorkers: cfg.ImportWorkers,
		Source:        cfg.Events.Source,
		Logger:        appLog,
	})
	if err != nil {
		appLog.Error("overlay service", "err", err)
		return 1
	}

	if cfg.Events.Enabled {
		cons := events.NewConsumer(events.Config{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
			GroupID: cfg.Events.GroupID,
			Source:  cfg.Events.Source,
		}, appLog, svc)
		deps.Ready = cons
		go func() {
			if err := cons.Start(ctx); err != nil {
				appLog.Error("events consumer stopped", "err", err)
			}
		}()
	}

	deps.API = router.New(svc, appLog)
	appLog.Info("starting overlay server",
		"addr", cfg.Addr,
		"version", Version,
		"store", cfg.StoreDriver,
		"events", cfg.Events.Enabled)

	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func openStore(ctx context.Context, cfg config.Config, mp *s2mapper.Mapper, levels pogo.Levels) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewWithMetrics(memstore.New(), "memory"), nil
	case "redis":
		cli, err := redisstore.New(ctx, cfg.RedisAddr,
			redisstore.WithReadTimeout(cfg.CacheOpTimeout),
			redisstore.WithWriteTimeout(cfg.CacheOpTimeout))
		if err != nil {
			return nil, err
		}
		cs, err := cachestore.New(cli, mp, levels.GymCell, levels.PoiCell)
		if err != nil {
			_ = cli.Close()
			return nil, err
		}
		return store.NewWithMetrics(cs, "redis"), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
