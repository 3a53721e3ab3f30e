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

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fairtrip-workers/internal/catalog"
	"fairtrip-workers/internal/common/aws"
	"fairtrip-workers/internal/common/config"
	"fairtrip-workers/internal/common/database"
	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/common/observability"
	"fairtrip-workers/internal/pricing"

	np "fairtrip-workers/internal/workers/communication/notify-plan"
	bi "fairtrip-workers/internal/workers/planning/build-itinerary"
	cc "fairtrip-workers/internal/workers/planning/choose-city"
	ef "fairtrip-workers/internal/workers/planning/evaluate-fairness"
	nrm "fairtrip-workers/internal/workers/planning/normalize-preferences"
	pt "fairtrip-workers/internal/workers/planning/plan-trip"
	ra "fairtrip-workers/internal/workers/planning/rerank-activities"
	sa "fairtrip-workers/internal/workers/planning/score-activities"
	stw "fairtrip-workers/internal/workers/planning/select-travel-window"
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
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.Plaintext,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init Catalog Source ---
	source, cleanup, err := buildCatalogSource(ctx, cfg, log, zapLog)
	if err != nil {
		zapLog.Fatal("catalog source init failed", zap.Error(err))
	}
	defer cleanup()
	zapLog.Info("Activity catalog ready", zap.String("source", source.Name()))

	// --- Init External Pricing Clients ---
	var flightSearcher pricing.FlightSearcher
	var hotelSearcher pricing.HotelSearcher
	if cfg.APIs.SerpAPI.APIKey != "" {
		serpClient := pricing.NewSerpAPIClient(
			cfg.APIs.SerpAPI.BaseURL,
			cfg.APIs.SerpAPI.APIKey,
			config.GetDuration(cfg.APIs.SerpAPI.Timeout),
		)
		flightSearcher = pricing.NewSerpAPIFlightSearcher(serpClient)
		hotelSearcher = pricing.NewSerpAPIHotelSearcher(serpClient)
		zapLog.Info("SerpAPI pricing clients initialized")
	} else {
		zapLog.Warn("SerpAPI key not configured, pricing runs on fallback estimates")
	}

	// --- Build Pipeline Stage Handlers ---
	normalizeConfig := nrm.LoadConfig()
	normalizeConfig.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, nrm.TaskType).Timeout)
	normalizeHandler := nrm.NewHandler(normalizeConfig, log)

	windowConfig := stw.LoadConfig()
	windowConfig.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, stw.TaskType).Timeout)
	windowHandler := stw.NewHandler(windowConfig, log)

	chooseCityConfig := cc.LoadConfig()
	chooseCityConfig.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, cc.TaskType).Timeout)
	if cfg.Planning.MinCityActivities > 0 {
		chooseCityConfig.MinActivities = cfg.Planning.MinCityActivities
	}
	if cfg.Planning.TopCities > 0 {
		chooseCityConfig.TopCities = cfg.Planning.TopCities
	}
	chooseCityHandler := cc.NewHandler(chooseCityConfig, source, log)

	scoreConfig := sa.LoadConfig()
	scoreConfig.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, sa.TaskType).Timeout)
	if cfg.Planning.TopActivities > 0 {
		scoreConfig.TopK = cfg.Planning.TopActivities
	}
	scoreHandler := sa.NewHandler(scoreConfig, source, log)

	rerankConfig := ra.LoadConfig()
	rerankConfig.GenAIBaseURL = cfg.APIs.GenAI.BaseURL
	rerankConfig.Model = cfg.APIs.GenAI.Model
	rerankConfig.Timeout = config.GetDuration(cfg.APIs.GenAI.Timeout)
	if cfg.Planning.RerankConcurrency > 0 {
		rerankConfig.Concurrency = cfg.Planning.RerankConcurrency
	}
	rerankHandler := ra.NewHandler(rerankConfig, ra.NewHTTPReranker(rerankConfig), log)

	itineraryHandler := bi.NewHandler(bi.LoadConfig(), log)
	fairnessHandler := ef.NewHandler(ef.LoadConfig(), log)

	planConfig := pt.LoadConfig()
	planConfig.Timeout = config.GetDuration(config.GetWorkerConfig(cfg, pt.TaskType).Timeout)
	if cfg.Pricing.FallbackFlightPrice > 0 {
		planConfig.FallbackFlightPrice = cfg.Pricing.FallbackFlightPrice
	}
	if cfg.Pricing.FallbackNightlyRate > 0 {
		planConfig.FallbackNightlyRate = cfg.Pricing.FallbackNightlyRate
	}
	if cfg.Pricing.MinHotelRating > 0 {
		planConfig.MinHotelRating = cfg.Pricing.MinHotelRating
	}
	planConfig.MaxNightlyRate = cfg.Pricing.MaxNightlyRate

	planHandler := pt.NewHandler(planConfig, pt.Stages{
		Normalize: normalizeHandler,
		Window:    windowHandler,
		City:      chooseCityHandler,
		Score:     scoreHandler,
		Rerank:    rerankHandler,
		Itinerary: itineraryHandler,
		Fairness:  fairnessHandler,
	}, flightSearcher, hotelSearcher, log)

	// --- Register Planning Workers ---
	startWorker(zeebeClient, nrm.TaskType, config.GetWorkerConfig(cfg, nrm.TaskType), normalizeHandler.Handle, zapLog)
	startWorker(zeebeClient, stw.TaskType, config.GetWorkerConfig(cfg, stw.TaskType), windowHandler.Handle, zapLog)
	startWorker(zeebeClient, cc.TaskType, config.GetWorkerConfig(cfg, cc.TaskType), chooseCityHandler.Handle, zapLog)
	startWorker(zeebeClient, sa.TaskType, config.GetWorkerConfig(cfg, sa.TaskType), scoreHandler.Handle, zapLog)
	startWorker(zeebeClient, ra.TaskType, config.GetWorkerConfig(cfg, ra.TaskType), rerankHandler.Handle, zapLog)
	startWorker(zeebeClient, bi.TaskType, config.GetWorkerConfig(cfg, bi.TaskType), itineraryHandler.Handle, zapLog)
	startWorker(zeebeClient, ef.TaskType, config.GetWorkerConfig(cfg, ef.TaskType), fairnessHandler.Handle, zapLog)
	startWorker(zeebeClient, pt.TaskType, config.GetWorkerConfig(cfg, pt.TaskType), planHandler.Handle, zapLog)

	// --- Register Notification Worker ---
	if config.GetWorkerConfig(cfg, np.TaskType).Enabled {
		notifyConfig := np.LoadConfig()
		notifyConfig.Region = cfg.Notifications.Region
		notifyConfig.FromEmail = cfg.Notifications.FromEmail
		notifyConfig.SMSEnabled = cfg.Notifications.SMSEnabled

		var emailSender np.EmailSender
		var smsSender np.SMSSender
		if sesClient, err := aws.NewSESClient(ctx, notifyConfig.Region); err != nil {
			zapLog.Warn("SES client init failed, plan emails disabled", zap.Error(err))
		} else {
			emailSender = np.NewSESEmailSender(sesClient, notifyConfig.FromEmail)
		}
		if notifyConfig.SMSEnabled {
			if snsClient, err := aws.NewSNSClient(ctx, notifyConfig.Region); err != nil {
				zapLog.Warn("SNS client init failed, plan SMS disabled", zap.Error(err))
			} else {
				smsSender = np.NewSNSSMSSender(snsClient)
			}
		}

		notifyHandler := np.NewHandler(notifyConfig, emailSender, smsSender, log)
		startWorker(zeebeClient, np.TaskType, config.GetWorkerConfig(cfg, np.TaskType), notifyHandler.Handle, zapLog)
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
		http.Handle(cfg.Monitoring.Path, promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Monitoring.Port)
		zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildCatalogSource wires the configured catalog backend, optionally wrapped
// in the Redis cache. The returned cleanup closes whatever connections the
// chosen source holds.
func buildCatalogSource(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) (catalog.Source, func(), error) {
	cleanup := func() {}

	var source catalog.Source
	switch cfg.Catalog.Source {
	case "csv":
		source = catalog.NewCSVSource(cfg.Catalog.CSVPath)

	case "postgres":
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { pg.Close() }
		source = catalog.NewPostgresSource(pg.DB)

	case "elasticsearch":
		var esClient *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, cleanup, err
		}
		source = catalog.NewElasticsearchSource(esClient.Client, cfg.Database.Elasticsearch.Index)

	default:
		return nil, cleanup, fmt.Errorf("unknown catalog source: %s", cfg.Catalog.Source)
	}

	if cfg.Catalog.CacheTTL > 0 {
		redisClient, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, cleanup, err
		}
		if err := redisClient.Ping(ctx); err != nil {
			return nil, cleanup, err
		}
		inner := cleanup
		cleanup = func() {
			redisClient.Close()
			inner()
		}
		source = catalog.NewCachedSource(source, redisClient.Client, config.GetDuration(cfg.Catalog.CacheTTL), log)
	}

	return source, cleanup, nil
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
