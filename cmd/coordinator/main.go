// cmd/coordinator/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"engagement-coordinator/internal/common/api"
	"engagement-coordinator/internal/common/config"
	"engagement-coordinator/internal/common/database"
	"engagement-coordinator/internal/common/logger"
	"engagement-coordinator/internal/common/observability"
	"engagement-coordinator/internal/conversation"
	"engagement-coordinator/internal/matching"
	"engagement-coordinator/internal/proposal"
	"engagement-coordinator/internal/role"
	"engagement-coordinator/internal/server"
	"engagement-coordinator/internal/session"
	"engagement-coordinator/internal/submission"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger)

	log.Info("starting engagement coordinator", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// Redis backs the session store and the recommendation read cache.
	redisClient, err := database.NewRedis(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("failed to create redis client", zap.Error(err))
	}
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 30*time.Second)
	err = retryWithBackoff(func() error {
		return redisClient.Ping(pingCtx)
	}, 5, time.Second, zapLogger, "redis ping")
	cancelPing()
	if err != nil {
		zapLogger.Fatal("redis unavailable", zap.Error(err))
	}

	apiClient := api.NewClient(cfg.API.BaseURL, cfg.API.AuthToken, cfg.API.TimeoutDuration(), log, obs)

	sessionStore := session.NewRedisStore(redisClient.GetClient(), cfg.Session.TTL())
	resolver := role.NewResolver(sessionStore, api.NewProfileAPI(apiClient), log)
	gateway := matching.NewGateway(apiClient, redisClient, cfg.Matching.CacheTTL(), log)
	proposals := proposal.NewManager(apiClient, log)
	submissions := submission.NewManager(apiClient, log)
	deriver := conversation.NewDeriver(
		conversation.NewAPIIdentityMapper(apiClient),
		conversation.NewAPIMetadataSource(apiClient),
		log,
	)

	facade := server.New(cfg.Server.Address, resolver, gateway, proposals, submissions, deriver, log)

	// Prometheus metrics on a separate listener.
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsMux,
	}
	go func() {
		log.Info("metrics listening", map[string]interface{}{"port": cfg.Server.MetricsPort})
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := facade.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("facade server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := facade.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("facade shutdown failed", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("metrics shutdown failed", zap.Error(err))
	}
}
