package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/readmission-risk-server/internal/api"
	"github.com/readmission-risk-server/internal/config"
	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model"
	"github.com/readmission-risk-server/internal/monitoring"
	"github.com/readmission-risk-server/internal/service"
)

var version = "dev"

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging)

	bundle, err := model.Load(cfg.Model.BundlePath)
	if err != nil {
		logger.WithError(err).WithField("bundle", cfg.Model.BundlePath).Error("Failed to load model bundle")
		if errors.Is(err, domain.ErrBundleNotFound) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	for _, w := range bundle.Warnings() {
		logger.WithField("bundle", cfg.Model.BundlePath).Warn(w)
	}

	pipeline, err := service.NewPipeline(bundle, configManager.GetDecisionPolicy())
	if err != nil {
		logger.WithError(err).Fatal("Failed to create pipeline")
	}

	var metrics *monitoring.Metrics
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics()
		metrics.SetModel(bundle.Metadata(), bundle.Classifier().Kind())
	}

	var assessor domain.Assessor = pipeline
	if cfg.Cache.MaxEntries > 0 {
		cached, err := service.NewCachedAssessor(pipeline, cfg.Cache.MaxEntries)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create assessment cache")
		}
		if metrics != nil {
			metrics.RegisterCache(cached)
		}
		assessor = cached
	}

	opts := []api.Option{api.WithLogger(logger), api.WithVersion(version)}
	if metrics != nil {
		opts = append(opts, api.WithMetrics(metrics))
	}
	server := api.NewServer(configManager, assessor, bundle, opts...)

	logger.WithFields(logrus.Fields{
		"host":       cfg.Server.Host,
		"port":       cfg.Server.Port,
		"classifier": bundle.Classifier().Kind(),
		"threshold":  cfg.Policy.Threshold,
	}).Info("Starting readmission risk server")

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
