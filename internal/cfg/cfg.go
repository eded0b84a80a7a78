// Package cfg loads pipeline configuration from a YAML file with
// environment-variable overrides. Seed and split ratio are configuration,
// not constants: the historical run's choices were never canonical.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the resolved runtime configuration for one pipeline run.
type Settings struct {
	DataPath   string
	OutputPath string
	StorePath  string
	BundleDir  string

	Seed      int64
	TestRatio float64
	Variants  []string

	ForestTrees    int
	ForestMaxDepth int
	ForestMinLeaf  int

	LogisticEpochs       int
	LogisticLearningRate float64

	KNNNeighbors int

	MetricsPort int
}

// KnownVariants are the trainable classifier families.
var KnownVariants = []string{"random-forest", "logistic-regression", "knn"}

// ConfigFile mirrors the YAML layout.
type ConfigFile struct {
	Data struct {
		Path       string `yaml:"path"`
		OutputPath string `yaml:"outputPath"`
		StorePath  string `yaml:"storePath"`
		BundleDir  string `yaml:"bundleDir"`
	} `yaml:"data"`

	Training struct {
		Seed      int64    `yaml:"seed"`
		TestRatio float64  `yaml:"testRatio"`
		Variants  []string `yaml:"variants"`
	} `yaml:"training"`

	Forest struct {
		Trees       int `yaml:"trees"`
		MaxDepth    int `yaml:"maxDepth"`
		MinLeafSize int `yaml:"minLeafSize"`
	} `yaml:"forest"`

	Logistic struct {
		Epochs       int     `yaml:"epochs"`
		LearningRate float64 `yaml:"learningRate"`
	} `yaml:"logistic"`

	KNN struct {
		Neighbors int `yaml:"neighbors"`
	} `yaml:"knn"`

	System struct {
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load reads configuration from the file named by CONFIG_FILE, falling back
// to environment variables with defaults.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		DataPath:             getEnvOrDefault("DATA_PATH", config.Data.Path),
		OutputPath:           getEnvOrDefault("OUTPUT_PATH", stringOrDefault(config.Data.OutputPath, "output")),
		StorePath:            getEnvOrDefault("STORE_PATH", stringOrDefault(config.Data.StorePath, "data")),
		BundleDir:            getEnvOrDefault("BUNDLE_DIR", stringOrDefault(config.Data.BundleDir, "models")),
		Seed:                 getInt64FromEnvOrConfig("SEED", config.Training.Seed, 42),
		TestRatio:            getFloatFromEnvOrConfig("TEST_RATIO", config.Training.TestRatio, 0.2),
		Variants:             getVariantsFromEnvOrConfig(config.Training.Variants),
		ForestTrees:          getIntFromEnvOrConfig("FOREST_TREES", config.Forest.Trees, 100),
		ForestMaxDepth:       getIntFromEnvOrConfig("FOREST_MAX_DEPTH", config.Forest.MaxDepth, 8),
		ForestMinLeaf:        getIntFromEnvOrConfig("FOREST_MIN_LEAF", config.Forest.MinLeafSize, 5),
		LogisticEpochs:       getIntFromEnvOrConfig("LOGISTIC_EPOCHS", config.Logistic.Epochs, 300),
		LogisticLearningRate: getFloatFromEnvOrConfig("LOGISTIC_LR", config.Logistic.LearningRate, 0.5),
		KNNNeighbors:         getIntFromEnvOrConfig("KNN_NEIGHBORS", config.KNN.Neighbors, 15),
		MetricsPort:          getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 0),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DataPath:             os.Getenv("DATA_PATH"),
		OutputPath:           getEnvOrDefault("OUTPUT_PATH", "output"),
		StorePath:            getEnvOrDefault("STORE_PATH", "data"),
		BundleDir:            getEnvOrDefault("BUNDLE_DIR", "models"),
		Seed:                 getInt64OrDefault("SEED", 42),
		TestRatio:            getFloatOrDefault("TEST_RATIO", 0.2),
		Variants:             splitOrDefault(os.Getenv("VARIANTS"), KnownVariants),
		ForestTrees:          getIntOrDefault("FOREST_TREES", 100),
		ForestMaxDepth:       getIntOrDefault("FOREST_MAX_DEPTH", 8),
		ForestMinLeaf:        getIntOrDefault("FOREST_MIN_LEAF", 5),
		LogisticEpochs:       getIntOrDefault("LOGISTIC_EPOCHS", 300),
		LogisticLearningRate: getFloatOrDefault("LOGISTIC_LR", 0.5),
		KNNNeighbors:         getIntOrDefault("KNN_NEIGHBORS", 15),
		MetricsPort:          getIntOrDefault("METRICS_PORT", 0),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func stringOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	return strings.Split(v, ",")
}

func getVariantsFromEnvOrConfig(configVariants []string) []string {
	if env := os.Getenv("VARIANTS"); env != "" {
		return strings.Split(env, ",")
	}
	if len(configVariants) > 0 {
		return configVariants
	}
	return KnownVariants
}

func getIntFromEnvOrConfig(key string, configValue, def int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getInt64FromEnvOrConfig(key string, configValue, def int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getFloatFromEnvOrConfig(key string, configValue, def float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

// validateSettings performs comprehensive validation of configuration values.
func validateSettings(settings *Settings) error {
	if settings.DataPath == "" {
		return fmt.Errorf("data path is required")
	}

	if settings.TestRatio <= 0 || settings.TestRatio >= 1 {
		return fmt.Errorf("test ratio must be between 0 and 1 exclusive, got %f", settings.TestRatio)
	}

	if len(settings.Variants) == 0 {
		return fmt.Errorf("at least one model variant must be enabled")
	}
	for _, v := range settings.Variants {
		known := false
		for _, k := range KnownVariants {
			if v == k {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown model variant %q (known: %s)", v, strings.Join(KnownVariants, ", "))
		}
	}

	if settings.ForestTrees <= 0 || settings.ForestTrees > 1000 {
		return fmt.Errorf("forest tree count must be between 1 and 1000, got %d", settings.ForestTrees)
	}
	if settings.ForestMaxDepth <= 0 || settings.ForestMaxDepth > 64 {
		return fmt.Errorf("forest max depth must be between 1 and 64, got %d", settings.ForestMaxDepth)
	}
	if settings.ForestMinLeaf <= 0 || settings.ForestMinLeaf > 1000 {
		return fmt.Errorf("forest min leaf size must be between 1 and 1000, got %d", settings.ForestMinLeaf)
	}

	if settings.LogisticEpochs <= 0 || settings.LogisticEpochs > 100000 {
		return fmt.Errorf("logistic epochs must be between 1 and 100000, got %d", settings.LogisticEpochs)
	}
	if settings.LogisticLearningRate <= 0 || settings.LogisticLearningRate > 10 {
		return fmt.Errorf("logistic learning rate must be between 0 and 10, got %f", settings.LogisticLearningRate)
	}

	if settings.KNNNeighbors <= 0 || settings.KNNNeighbors > 500 {
		return fmt.Errorf("knn neighbor count must be between 1 and 500, got %d", settings.KNNNeighbors)
	}

	if settings.MetricsPort != 0 && (settings.MetricsPort < 1024 || settings.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be 0 (disabled) or between 1024 and 65535, got %d", settings.MetricsPort)
	}

	return nil
}
