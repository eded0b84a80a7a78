package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"telco-churn/internal/dataset"
	"telco-churn/internal/features"
	"telco-churn/internal/ml"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "Path or URL of the CSV to score (required)")
		outputPath = flag.String("output", "scores.csv", "Output CSV of per-customer predictions")
		bundleDir  = flag.String("bundles", "models", "Directory holding persisted model bundles")
		version    = flag.String("version", "", "Bundle version to score with (default: active)")
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

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: churnscore -input <csv> [-output scores.csv] [-bundles models]")
		os.Exit(2)
	}

	bundles, err := ml.NewBundleManager(*bundleDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize bundle manager")
	}

	if *version != "" {
		if err := bundles.Activate(*version); err != nil {
			log.Fatal().Err(err).Str("version", *version).Msg("Failed to activate bundle version")
		}
	}

	bundle, err := bundles.LoadActive()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load model bundle")
	}

	model, err := bundle.LoadModel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to decode model from bundle")
	}

	encoder, err := features.EncoderFromMapping(bundle.Mapping)
	if err != nil {
		log.Fatal().Err(err).Msg("Bundle feature mapping is incompatible")
	}

	log.Info().
		Str("version", bundle.Version).
		Str("variant", bundle.Variant).
		Float64("training_accuracy", bundle.Report.Accuracy).
		Msg("Model loaded")

	loader := dataset.NewScoringLoader()
	clean, err := loader.Load(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load scoring data")
	}

	if err := writeScores(*outputPath, model, encoder, clean.Records); err != nil {
		log.Fatal().Err(err).Msg("Failed to write scores")
	}

	for _, u := range encoder.UnknownCategories() {
		log.Warn().
			Str("field", u.Field).
			Str("value", u.Value).
			Int("rows", u.Count).
			Msg("Unknown category encountered during scoring")
	}

	log.Info().
		Int("customers", len(clean.Records)).
		Str("file", *outputPath).
		Msg("Scoring complete")
}

func writeScores(path string, model ml.Model, encoder *features.Encoder, records []dataset.CustomerRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"customerID", "churn_probability", "churn_predicted"}); err != nil {
		return err
	}

	for i := range records {
		x := encoder.Encode(&records[i])
		score := model.Score(x)
		predicted := "No"
		if model.Predict(x) {
			predicted = "Yes"
		}
		row := []string{
			records[i].CustomerID,
			strconv.FormatFloat(score, 'f', 4, 64),
			predicted,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}
