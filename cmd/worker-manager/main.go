// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kanishkaditya/DinemateBackend/internal/analysis"
	"github.com/kanishkaditya/DinemateBackend/internal/clients/foursquare"
	"github.com/kanishkaditya/DinemateBackend/internal/clients/genai"
	"github.com/kanishkaditya/DinemateBackend/internal/common/camunda"
	"github.com/kanishkaditya/DinemateBackend/internal/common/config"
	"github.com/kanishkaditya/DinemateBackend/internal/common/database"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/common/observability"
	"github.com/kanishkaditya/DinemateBackend/internal/preference"
	"github.com/kanishkaditya/DinemateBackend/internal/recommend"
	"github.com/kanishkaditya/DinemateBackend/internal/store"
	"github.com/kanishkaditya/DinemateBackend/pkg/registry"

	am "github.com/kanishkaditya/DinemateBackend/internal/workers/analysis/analyze-message"
	dsp "github.com/kanishkaditya/DinemateBackend/internal/workers/maintenance/decay-stale-preferences"
	sgm "github.com/kanishkaditya/DinemateBackend/internal/workers/preference/sync-group-member"
	fc "github.com/kanishkaditya/DinemateBackend/internal/workers/recommendation/fetch-candidates"
	rr "github.com/kanishkaditya/DinemateBackend/internal/workers/recommendation/rank-restaurants"
)

// retryWithBackoff attempts to execute a function with exponential backoff
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
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	// The index is a degrade path, not a hard dependency. A cluster that
	// never comes up leaves the manager running on the live provider only.
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 5, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Warn("elasticsearch unavailable, index fallback disabled", zap.Error(err))
		esClient = nil
	} else {
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init External Service Clients ---
	fsqClient := foursquare.NewClient(cfg.APIs.Foursquare, log)
	genaiClient := genai.NewClient(cfg.APIs.GenAI, log)

	zapLog.Info("All external service clients initialized")

	// --- Init Domain Components ---
	profileTTL := time.Duration(cfg.Database.Redis.ProfileTTLSec) * time.Second
	profiles := store.NewProfileStore(pg.DB, redis.Client, profileTTL, log)

	var index *store.RestaurantIndex
	if esClient != nil {
		index = store.NewRestaurantIndex(esClient, log)
	}

	pipeline := analysis.NewPipeline(cfg.Analysis.UpdateThreshold, log)
	aggregator := preference.NewAggregator(genaiClient, log)
	scorer := recommend.NewScorer()

	// --- Load Task Registry ---
	if reg, err := registry.LoadRegistry(cfg.Registry.Path); err != nil {
		zapLog.Warn("task registry unavailable", zap.Error(err), zap.String("path", cfg.Registry.Path))
	} else {
		for _, taskType := range []string{am.TaskType, sgm.TaskType, fc.TaskType, rr.TaskType, dsp.TaskType} {
			if reg.FindByTaskType(taskType) == nil {
				zapLog.Warn("task type missing from registry", zap.String("taskType", taskType))
			}
		}
		zapLog.Info("task registry loaded",
			zap.String("version", reg.Version),
			zap.Int("activities", len(reg.Activities)),
		)
	}

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker

	startWorker := func(taskType string, wcfg config.WorkerConfig, handlerFunc camunda.JobHandlerFunc) {
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		w := camunda.NewWorker(zeebeClient, camunda.WorkerOptions{
			TaskType:      taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handlerFunc, zapLog)
		workers = append(workers, w)
	}

	if config.IsWorkerEnabled(cfg, am.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, am.TaskType)
		handler := am.NewHandler(
			&am.Config{
				Timeout:         config.GetDuration(wcfg.Timeout),
				UpdateThreshold: cfg.Analysis.UpdateThreshold,
				MinConfidence:   cfg.Analysis.MinConfidence,
			},
			pipeline, aggregator, profiles, log,
		)
		startWorker(am.TaskType, wcfg, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, sgm.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, sgm.TaskType)
		handler := sgm.NewHandler(
			&sgm.Config{
				Timeout: config.GetDuration(wcfg.Timeout),
			},
			aggregator, profiles, log,
		)
		startWorker(sgm.TaskType, wcfg, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, fc.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, fc.TaskType)
		var fallback fc.CandidateSearcher
		if index != nil {
			fallback = index
		}
		handler := fc.NewHandler(
			&fc.Config{
				Timeout:    config.GetDuration(wcfg.Timeout),
				MaxResults: cfg.Recommendation.MaxResults,
			},
			profiles, fsqClient, fallback, log,
		)
		startWorker(fc.TaskType, wcfg, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, rr.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, rr.TaskType)
		handler := rr.NewHandler(
			&rr.Config{
				Timeout: config.GetDuration(wcfg.Timeout),
			},
			scorer, profiles, log,
		)
		startWorker(rr.TaskType, wcfg, handler.Handle)
	}

	if config.IsWorkerEnabled(cfg, dsp.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, dsp.TaskType)
		handler := dsp.NewHandler(
			&dsp.Config{
				Timeout:        config.GetDuration(wcfg.Timeout),
				StaleAfterDays: cfg.Analysis.StaleAfterDays,
				DecayFactor:    cfg.Analysis.DecayFactor,
				DecayFloor:     cfg.Analysis.DecayFloor,
				BatchSize:      100,
			},
			aggregator, profiles, log,
		)
		startWorker(dsp.TaskType, wcfg, handler.Handle)
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Close()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

