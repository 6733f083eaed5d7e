package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/leowmjw/go-chart-viewport/pkg/http"
	"github.com/leowmjw/go-chart-viewport/pkg/metrics"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/temporal"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	var (
		httpAddr     = flag.String("http-addr", envOr("CHART_HTTP_ADDR", ":8080"), "HTTP server address")
		temporalAddr = flag.String("temporal-addr", envOr("TEMPORAL_ADDRESS", "localhost:7233"), "Temporal server address")
		namespace    = flag.String("namespace", envOr("TEMPORAL_NAMESPACE", "default"), "Temporal namespace")
		taskQueue    = flag.String("task-queue", envOr("CHART_TASK_QUEUE", temporal.TaskQueue), "Temporal task queue")
		logLevel     = flag.String("log-level", envOr("CHART_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
		logFile      = flag.String("log-file", envOr("CHART_LOG_FILE", "logs/chart-server.log"), "Rotated log file, empty to log to stdout only")
		seedFile     = flag.String("seed", envOr("CHART_SEED_FILE", ""), "Series JSON file preloaded as chart \"demo\"")
	)
	flag.Parse()

	logger, err := setupLogger(*logLevel, *logFile)
	if err != nil {
		slog.Error("Failed to set up logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	logger.Info("Starting chart service",
		"http_addr", *httpAddr,
		"temporal_addr", *temporalAddr,
		"namespace", *namespace,
		"task_queue", *taskQueue,
	)

	temporalClient, err := client.Dial(client.Options{
		HostPort:  *temporalAddr,
		Namespace: *namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		logger.Error("Failed to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	source := temporal.NewMemorySeriesSource()
	if *seedFile != "" {
		if err := seed(source, *seedFile); err != nil {
			logger.Error("Failed to seed series", "file", *seedFile, "error", err)
			os.Exit(1)
		}
		logger.Info("Seeded series", "chartID", "demo", "count", source.Count("demo"))
	}
	activities := temporal.NewChartActivities(logger, source)

	w := worker.New(temporalClient, *taskQueue, worker.Options{})
	w.RegisterWorkflow(temporal.ChartSessionWorkflow)
	w.RegisterActivityWithOptions(activities.LoadSeriesActivity, activity.RegisterOptions{Name: temporal.LoadSeriesActivityName})
	w.RegisterActivityWithOptions(activities.StoreSeriesActivity, activity.RegisterOptions{Name: temporal.StoreSeriesActivityName})

	go func() {
		logger.Info("Starting Temporal worker", "task_queue", *taskQueue)
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Error("Temporal worker failed", "error", err)
			os.Exit(1)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessions := temporal.NewSessionClient(temporalClient, *taskQueue)
	server := http.NewServer(logger, sessions, *httpAddr, metrics.New(reg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Received shutdown signal, stopping services...")
	cancel()

	logger.Info("Chart service stopped")
}

func setupLogger(level, filename string) (*slog.Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if filename != "" {
		if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    25,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		})
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slogLevel})), nil
}

func seed(source *temporal.MemorySeriesSource, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := series.ParsePayload(data)
	if err != nil {
		return err
	}
	return source.StoreSeries(context.Background(), "demo", series.PayloadOf(s))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
