// Package server exposes the typing service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/verte-zerg/typist/internal/model"
	"github.com/verte-zerg/typist/internal/service"
)

// Service is the application layer used by the handlers.
type Service interface {
	AdaptiveText(ctx context.Context, userID int64, lang string) (string, error)
	PlainText(ctx context.Context, lang string, count int) (string, error)
	FrequentErrors(ctx context.Context, userID int64) ([]model.ErrorFrequency, error)
	SaveResult(ctx context.Context, userID int64, req service.ResultRequest) (model.TypingSession, error)
	UserStats(ctx context.Context, userID int64) (model.UserStat, error)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	JWTSecret   string
	CORSOrigins []string
	// RateLimit is the number of submissions allowed per RateWindow and user; 0 disables it.
	RateLimit  int
	RateWindow time.Duration
	// TrustedProxies may set X-Forwarded-For; nil trusts none and uses the remote address.
	TrustedProxies []string
	// Registry receives request metrics; nil creates a private registry.
	Registry *prometheus.Registry
}

// NewRouter builds the gin engine with every route mounted under /api.
func NewRouter(svc Service, health Pinger, log *zap.Logger, opts Options) (*gin.Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := newMetrics(reg)
	h := &handlers{svc: svc, pinger: health, log: log}

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(metrics.middleware())
	router.Use(CORS(opts.CORSOrigins))

	api := router.Group("/api")
	api.GET("/health", h.health)
	api.GET("/metrics", metricsHandler(reg))
	api.GET("/text", h.plainText)
	api.GET("/text/words", h.words)

	auth := api.Group("")
	auth.Use(Auth(opts.JWTSecret, log))
	auth.GET("/text/adaptive", h.adaptiveText)
	auth.GET("/frequent-errors", h.frequentErrors)
	auth.GET("/user/stats", h.userStats)
	if opts.RateLimit > 0 {
		auth.POST("/save-result", RateLimiter(opts.RateLimit, opts.RateWindow), h.saveResult)
	} else {
		auth.POST("/save-result", h.saveResult)
	}

	return router, nil
}

// Serve runs srv until ctx is canceled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, log *zap.Logger, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
