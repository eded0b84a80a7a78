package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telco-churn/internal/cfg"
	"telco-churn/internal/metrics"
	"telco-churn/internal/ml"
	"telco-churn/internal/pipeline"
	"telco-churn/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to a YAML config file (same as CONFIG_FILE)")
		dataPath   = flag.String("data", "", "Path or URL of the source CSV (overrides config)")
		outputPath = flag.String("output", "", "Output directory for reports (overrides config)")
		storePath  = flag.String("store", "", "Data directory for the artifact database (overrides config)")
		bundleDir  = flag.String("bundles", "", "Directory for persisted model bundles (overrides config)")
		seed       = flag.Int64("seed", 0, "Random seed (overrides config when non-zero)")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	_ = godotenv.Load()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *configFile != "" {
		os.Setenv("CONFIG_FILE", *configFile)
	}

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if *dataPath != "" {
		config.DataPath = *dataPath
	}
	if *outputPath != "" {
		config.OutputPath = *outputPath
	}
	if *storePath != "" {
		config.StorePath = *storePath
	}
	if *bundleDir != "" {
		config.BundleDir = *bundleDir
	}
	if *seed != 0 {
		config.Seed = *seed
	}

	fmt.Println("=== Churn Pipeline Configuration ===")
	fmt.Printf("Data Source: %s\n", config.DataPath)
	fmt.Printf("Output Directory: %s\n", config.OutputPath)
	fmt.Printf("Bundle Directory: %s\n", config.BundleDir)
	fmt.Printf("Variants: %v\n", config.Variants)
	fmt.Printf("Seed: %d\n", config.Seed)
	fmt.Println("====================================")

	if err := os.MkdirAll(config.StorePath, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directory")
	}

	store, err := storage.New(config.StorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open artifact store")
	}
	defer store.Close()

	bundles, err := ml.NewBundleManager(config.BundleDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize bundle manager")
	}

	m := metrics.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if config.MetricsPort > 0 {
		startMetricsServer(ctx, config.MetricsPort)
	}

	engine := pipeline.NewEngine(&config, store, bundles, m)
	result, err := engine.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline run failed")
	}

	reporter := pipeline.NewReporter(result, config.OutputPath)
	if err := reporter.GenerateReport(); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate reports")
	}
	reporter.PrintSummary()
}

// startMetricsServer exposes Prometheus metrics and a health endpoint while
// the pipeline runs.
func startMetricsServer(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown metrics server")
		}
	}()

	go func() {
		log.Info().Int("port", port).Msg("Metrics server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}
