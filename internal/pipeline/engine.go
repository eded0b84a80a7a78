// Package pipeline orchestrates the churn training run: loading and cleaning
// the source CSV, encoding features, training the configured model variants,
// selecting the best performer and persisting every artifact.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"telco-churn/internal/cfg"
	"telco-churn/internal/dataset"
	"telco-churn/internal/features"
	"telco-churn/internal/metrics"
	"telco-churn/internal/ml"
	"telco-churn/internal/storage"
)

// RunResult holds everything produced by one pipeline run.
type RunResult struct {
	RunID       string
	Cleaning    dataset.CleanResult
	Reports     []ml.Report
	Best        ml.Report
	Importances []ml.FieldImportance
	Unknown     []features.UnknownCategory
	Bundle      *ml.Bundle
	Duration    time.Duration
}

// Engine runs the full training pipeline.
type Engine struct {
	config  *cfg.Settings
	loader  *dataset.Loader
	store   *storage.Store
	bundles *ml.BundleManager
	metrics *metrics.Metrics
}

// NewEngine wires a pipeline engine from its dependencies. store and m may be
// nil, in which case persistence to the database and metric updates are
// skipped.
func NewEngine(config *cfg.Settings, store *storage.Store, bundles *ml.BundleManager, m *metrics.Metrics) *Engine {
	return &Engine{
		config:  config,
		loader:  dataset.NewLoader(),
		store:   store,
		bundles: bundles,
		metrics: m,
	}
}

// Run executes the pipeline end to end and returns the collected results.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New().String()

	log.Info().
		Str("run_id", runID).
		Str("data", e.config.DataPath).
		Int64("seed", e.config.Seed).
		Msg("Starting churn pipeline run")

	clean, err := e.loader.Load(e.config.DataPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if e.metrics != nil {
		e.metrics.ObserveCleaning(clean.Loaded, clean.Dropped, clean.BlankTotalCharges)
	}

	encoder := features.NewEncoder()
	X, y := encoder.EncodeAll(clean.Records)
	data := ml.Dataset{X: X, Y: y}

	split, err := ml.StratifiedSplit(data, e.config.TestRatio, e.config.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}
	log.Info().
		Int("train", split.Train.Len()).
		Int("test", split.Test.Len()).
		Float64("test_ratio", e.config.TestRatio).
		Msg("Dataset split")

	variants, err := e.buildVariants()
	if err != nil {
		return nil, err
	}

	type trained struct {
		model  ml.Model
		report ml.Report
	}
	results := make([]trained, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			trainStart := time.Now()
			model, err := v.Fit(split.Train)
			if err != nil {
				return fmt.Errorf("train %s: %w", v.Name(), err)
			}
			report, err := ml.Evaluate(model, split.Test)
			if err != nil {
				return fmt.Errorf("evaluate %s: %w", v.Name(), err)
			}
			mu.Lock()
			results[i] = trained{model: model, report: report}
			if e.metrics != nil {
				e.metrics.ModelsTrained.Inc()
				e.metrics.TrainingDuration.Observe(time.Since(trainStart).Seconds())
				e.metrics.HeldOutAccuracy.Observe(report.Accuracy)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if e.metrics != nil {
			e.metrics.ErrorsTotal.Inc()
		}
		return nil, err
	}

	reports := make([]ml.Report, len(results))
	for i, r := range results {
		reports[i] = r.report
	}
	best, err := ml.SelectBest(reports)
	if err != nil {
		return nil, err
	}

	var bestModel ml.Model
	for _, r := range results {
		if r.report.Variant == best.Variant {
			bestModel = r.model
			break
		}
	}

	importances, err := ml.RankImportances(bestModel, split.Test, encoder.Groups())
	if err != nil {
		return nil, fmt.Errorf("rank importances: %w", err)
	}

	bundle, err := ml.NewBundle(bestModel, e.config.Seed, encoder.Mapping(), best, importances)
	if err != nil {
		return nil, fmt.Errorf("build bundle: %w", err)
	}

	unknown := encoder.UnknownCategories()
	if e.metrics != nil {
		for _, u := range unknown {
			e.metrics.UnknownCategories.Add(float64(u.Count))
		}
	}

	result := &RunResult{
		RunID:       runID,
		Cleaning:    *clean,
		Reports:     reports,
		Best:        best,
		Importances: importances,
		Unknown:     unknown,
		Bundle:      bundle,
		Duration:    time.Since(start),
	}

	if err := e.persist(result); err != nil {
		return nil, err
	}

	log.Info().
		Str("run_id", runID).
		Str("best_variant", best.Variant).
		Float64("accuracy", best.Accuracy).
		Dur("duration", result.Duration).
		Msg("Pipeline run complete")

	return result, nil
}

// buildVariants instantiates the configured model variants with seeds derived
// from the run seed so per-variant randomness stays reproducible.
func (e *Engine) buildVariants() ([]ml.Variant, error) {
	variants := make([]ml.Variant, 0, len(e.config.Variants))
	for i, name := range e.config.Variants {
		switch name {
		case "random-forest":
			variants = append(variants, ml.NewForestVariant(ml.ForestConfig{
				Trees:       e.config.ForestTrees,
				MaxDepth:    e.config.ForestMaxDepth,
				MinLeafSize: e.config.ForestMinLeaf,
				Seed:        e.config.Seed + int64(i),
			}))
		case "logistic-regression":
			variants = append(variants, ml.NewLogisticVariant(ml.LogisticConfig{
				Epochs:       e.config.LogisticEpochs,
				LearningRate: e.config.LogisticLearningRate,
			}))
		case "knn":
			variants = append(variants, ml.NewKNNVariant(ml.KNNConfig{
				Neighbors: e.config.KNNNeighbors,
			}))
		default:
			return nil, fmt.Errorf("unknown model variant %q", name)
		}
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("no model variants configured")
	}
	return variants, nil
}

// persist writes the run artifacts to the bundle directory and the database.
func (e *Engine) persist(r *RunResult) error {
	if e.bundles != nil {
		if err := e.bundles.Save(r.Bundle); err != nil {
			return fmt.Errorf("save bundle: %w", err)
		}
	}
	if e.store == nil {
		return nil
	}
	if err := e.store.StoreCustomers(r.Cleaning.Records); err != nil {
		return fmt.Errorf("store customers: %w", err)
	}
	if err := e.store.StoreArtifact(r.RunID, storage.ArtifactBundle, r.Bundle); err != nil {
		return err
	}
	if err := e.store.StoreArtifact(r.RunID, storage.ArtifactReport, r.Reports); err != nil {
		return err
	}
	return e.store.StoreArtifact(r.RunID, storage.ArtifactImportances, r.Importances)
}
