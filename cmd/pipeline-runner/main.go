// cmd/pipeline-runner/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"content-orchestrator/internal/archive"
	"content-orchestrator/internal/cache"
	"content-orchestrator/internal/catalog"
	"content-orchestrator/internal/common/config"
	"content-orchestrator/internal/common/database"
	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/common/observability"
	"content-orchestrator/internal/dispatch"
	"content-orchestrator/internal/genai"
	"content-orchestrator/internal/models"
	"content-orchestrator/internal/pipeline"
	"content-orchestrator/internal/stages/ideation"
	qualitygate "content-orchestrator/internal/stages/quality-gate"
	semanticanalysis "content-orchestrator/internal/stages/semantic-analysis"
)

// briefFile is the JSON document the runner executes: the campaign brief
// plus its restrictions and objectives.
type briefFile struct {
	Campaign     models.CampaignBrief `json:"campaign"`
	Restrictions models.Restrictions  `json:"restrictions"`
	Objectives   models.Objectives    `json:"objectives"`
}

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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	briefPath := flag.String("brief", "", "path to the campaign brief JSON file")
	outPath := flag.String("out", "", "write the orchestration result here (default stdout)")
	force := flag.Bool("force", false, "skip the plan cache and regenerate")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	if *briefPath == "" {
		zapLog.Fatal("missing required -brief flag")
	}

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			zapLog.Info("metrics endpoint listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				zapLog.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	brief, err := readBrief(*briefPath)
	if err != nil {
		zapLog.Fatal("brief load failed", zap.Error(err))
	}

	// --- Catalog source ---
	var source catalog.Source
	switch cfg.Catalog.Source {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		source = catalog.NewPostgresStore(pg.DB)
		zapLog.Info("PostgreSQL catalog connected")
	default:
		source, err = catalog.NewRegistryStore(cfg.Catalog.RegistryPath)
		if err != nil {
			zapLog.Fatal("catalog registry load failed", zap.Error(err))
		}
		zapLog.Info("catalog registry loaded", zap.String("path", cfg.Catalog.RegistryPath))
	}

	// --- Optional plan cache ---
	var planCache pipeline.PlanCache
	if cfg.Pipeline.CacheEnabled {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, running without plan cache", zap.Error(err))
		} else {
			defer rdb.Close()
			ttl := time.Duration(cfg.Pipeline.CacheTTLMinutes) * time.Minute
			planCache = cache.NewPlanCache(rdb.Client, ttl, log)
			zapLog.Info("plan cache connected")
		}
	}

	// --- Optional plan archive ---
	var planArchive pipeline.Archiver
	if cfg.Pipeline.ArchiveEnabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = es.Ping()
		}
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, running without plan archive", zap.Error(err))
		} else {
			planArchive = archive.NewPlanArchive(es.Client, cfg.Database.Elasticsearch.Index, log)
			zapLog.Info("plan archive connected")
		}
	}

	// --- Backend client, dispatcher, stages ---
	backend := genai.NewClient(&genai.Config{
		BaseURL:     cfg.GenAI.BaseURL,
		APIKey:      cfg.GenAI.APIKey,
		Timeout:     time.Duration(cfg.GenAI.Timeout) * time.Millisecond,
		MaxTokens:   cfg.GenAI.MaxTokens,
		Temperature: cfg.GenAI.Temperature,
	}, log)

	dispatcher := dispatch.New(backend, cfg.Pipeline.MaxConcurrentRequests, log)

	retry := genai.RetryPolicy{
		Attempts:   cfg.GenAI.RetryAttempts,
		BaseDelay:  time.Duration(cfg.GenAI.RetryBaseMs) * time.Millisecond,
		Multiplier: 2,
	}

	semanticConfig := semanticanalysis.DefaultConfig()
	semanticConfig.MaxTokens = cfg.GenAI.MaxTokens
	semanticConfig.Retry = retry

	ideationConfig := ideation.DefaultConfig()
	ideationConfig.MaxTokens = cfg.GenAI.MaxTokens
	ideationConfig.Temperature = cfg.GenAI.Temperature
	ideationConfig.Retry = retry

	controller := pipeline.NewController(
		semanticanalysis.New(semanticConfig, dispatcher, log),
		ideation.New(ideationConfig, dispatcher, log),
		qualitygate.New(log),
		planCache,
		planArchive,
		pipeline.Options{DefaultIntervalHours: cfg.Scheduler.DefaultIntervalHours},
		log,
	)

	// --- Load catalog and run ---
	workspaceID := brief.Campaign.WorkspaceID
	input := pipeline.RunInput{
		Campaign:        brief.Campaign,
		Restrictions:    brief.Restrictions,
		Objectives:      brief.Objectives,
		ForceRegenerate: *force,
	}
	if len(input.Campaign.PreferredHours) == 0 {
		input.Campaign.PreferredHours = cfg.Scheduler.PreferredHours
	}

	if input.Workspace, err = source.Workspace(ctx, workspaceID); err != nil {
		zapLog.Fatal("workspace lookup failed", zap.Error(err))
	}
	if input.Resources, err = source.Resources(ctx, workspaceID); err != nil {
		zapLog.Fatal("resource catalog query failed", zap.Error(err))
	}
	if input.Templates, err = source.Templates(ctx, workspaceID); err != nil {
		zapLog.Fatal("template catalog query failed", zap.Error(err))
	}

	started := time.Now()
	result, err := controller.Run(ctx, input)
	if err != nil {
		obs.RecordRun(ctx, "error")
		zapLog.Fatal("pipeline run failed", zap.Error(err))
	}
	obs.RecordRun(ctx, "success")
	obs.RecordRunDuration(ctx, time.Since(started), "success")

	if err := writeResult(*outPath, result); err != nil {
		zapLog.Fatal("result write failed", zap.Error(err))
	}

	zapLog.Info("run complete",
		zap.String("runId", result.RunID),
		zap.Int("slots", len(result.ConsolidatedPlan.Slots)),
		zap.Int("score", result.QualityReport.OverallScore),
		zap.Bool("ready", result.QualityReport.ReadyForProduction),
	)
}

func readBrief(path string) (*briefFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var brief briefFile
	if err := json.Unmarshal(data, &brief); err != nil {
		return nil, fmt.Errorf("decode brief %s: %w", path, err)
	}
	return &brief, nil
}

func writeResult(path string, result interface{}) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}
	return os.WriteFile(path, out, 0644)
}
