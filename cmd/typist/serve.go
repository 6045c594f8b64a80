package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/typist/internal/config"
	"github.com/verte-zerg/typist/internal/dictionary"
	"github.com/verte-zerg/typist/internal/generator"
	"github.com/verte-zerg/typist/internal/logging"
	"github.com/verte-zerg/typist/internal/server"
	"github.com/verte-zerg/typist/internal/service"
	"github.com/verte-zerg/typist/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(logging.Options{
		Level:      settings.Log.Level,
		File:       settings.Log.File,
		MaxSize:    settings.Log.MaxSize,
		MaxBackups: settings.Log.MaxBackups,
		MaxAge:     settings.Log.MaxAge,
		Compress:   settings.Log.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() {
		// Best-effort flush.
		_ = log.Sync()
	}()

	st, err := store.Open(store.Options{
		Driver:    settings.Database.Driver,
		DSN:       settings.Database.DSN,
		Retention: settings.Text.Retention,
		Log:       log,
	})
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("failed to close db", zap.Error(cerr))
		}
	}()

	cache, closeCache, err := newDictionaryCache(cmd.Context(), settings, log)
	if err != nil {
		return err
	}
	defer closeCache()
	loader := dictionary.NewLoader(settings.Dictionary.Dir, cache, log)
	if langs, err := loader.Languages(); err != nil || len(langs) == 0 {
		log.Warn("no dictionaries available",
			zap.String("dir", settings.Dictionary.Dir),
			zap.String("hint", "typist dict import --lang <code> <file>"),
		)
	}

	svc := service.New(st, loader, generator.New(), log, service.Options{
		AdaptiveLength: settings.Text.AdaptiveLength,
		PlainWords:     settings.Text.PlainWords,
	})

	if settings.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	router, err := server.NewRouter(svc, st, log, server.Options{
		JWTSecret:      settings.Auth.JWTSecret,
		CORSOrigins:    settings.Server.CORSOrigins,
		RateLimit:      settings.Server.RateLimit,
		RateWindow:     settings.Server.RateWindow,
		TrustedProxies: settings.Server.TrustedProxies,
		Registry:       reg,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
	}
	ln, err := net.Listen("tcp", settings.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", settings.Server.Addr, err)
	}

	log.Info("starting typist",
		zap.String("db_driver", settings.Database.Driver),
		zap.String("dict_dir", settings.Dictionary.Dir),
		zap.String("dict_cache", settings.Dictionary.Cache),
		zap.Int("retention", settings.Text.Retention),
		zap.String("read_timeout", formatDuration(settings.Server.ReadTimeout)),
		zap.String("write_timeout", formatDuration(settings.Server.WriteTimeout)),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Serve(ctx, srv, ln, log, settings.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// newDictionaryCache returns the configured cache backend and a closer for it.
func newDictionaryCache(ctx context.Context, settings config.Settings, log *zap.Logger) (dictionary.Cache, func(), error) {
	noop := func() {}
	switch settings.Dictionary.Cache {
	case config.CacheNone:
		return nil, noop, nil
	case config.CacheRedis:
		rdb := newRedisClient(settings)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable, dictionaries will load from disk until it recovers",
				zap.String("addr", settings.Redis.Addr),
				zap.Error(err),
			)
		}
		closer := func() {
			if err := rdb.Close(); err != nil {
				log.Warn("failed to close redis", zap.Error(err))
			}
		}
		return dictionary.NewRedisCache(rdb, settings.Dictionary.CacheTTL), closer, nil
	default:
		return dictionary.NewMemoryCache(settings.Dictionary.CacheSize, settings.Dictionary.CacheTTL), noop, nil
	}
}

func newRedisClient(settings config.Settings) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     settings.Redis.Addr,
		Password: settings.Redis.Password,
		DB:       settings.Redis.DB,
	})
}
