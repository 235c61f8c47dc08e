package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"github.com/tix-net/condenser/internal/apiclient"
	"github.com/tix-net/condenser/internal/config"
	"github.com/tix-net/condenser/internal/metrics"
	"github.com/tix-net/condenser/internal/queue"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(&logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.Level(cfg.ZerologLevel())
	cfg.LogConfig(logger)

	apiClient, err := apiclient.New(apiclient.Config{
		Host:     cfg.APIHost,
		Port:     cfg.APIPort,
		SSL:      cfg.APISSL,
		User:     cfg.APIUser,
		Password: cfg.APIPassword,
		Timeout:  cfg.APITimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build API client")
	}

	connector := queue.NewAMQPConnector(queue.AMQPConfig{
		URL:       cfg.AMQPURL(),
		QueueName: cfg.ProcessorQueue,
	})
	consumer := queue.NewConsumer(connector, apiClient, logger, cfg.QueueReconnectMax)

	hostMonitor, err := metrics.NewHostMonitor(cfg.MetricsInterval)
	if err != nil {
		logger.Warn().Err(err).Msg("host monitor unavailable, skipping resource sampling")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux(),
	}
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics endpoint")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	if hostMonitor != nil {
		go hostMonitor.Run(ctx)
	}

	consumer.Start(ctx)
	logger.Info().Str("queue", cfg.ProcessorQueue).Msg("consumer started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	consumer.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("metrics server shutdown error")
	}

	processed, acked, rejected, requeued := consumer.Metrics()
	logger.Info().
		Uint64("processed", processed).
		Uint64("acked", acked).
		Uint64("rejected", rejected).
		Uint64("requeued", requeued).
		Msg("shutdown complete")
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}
