package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"telco-churn/internal/features"
)

// Bundle is the durable form of a trained model: the fitted classifier
// parameters together with the encoder mapping they were trained against,
// plus the evaluation report and importance ranking of the run that produced
// them. Downstream consumers (scorer, dashboard) depend only on bundles.
type Bundle struct {
	Version     string            `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	Variant     string            `json:"variant"`
	Seed        int64             `json:"seed"`
	Mapping     features.Mapping  `json:"mapping"`
	Report      Report            `json:"report"`
	Importances []FieldImportance `json:"importances"`
	Model       json.RawMessage   `json:"model"`
}

// NewBundle serializes a fitted model into a bundle. The version carries a
// random suffix so bundles created within the same second never collide on
// disk or in the index.
func NewBundle(m Model, seed int64, mapping features.Mapping, report Report, importances []FieldImportance) (*Bundle, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s model: %w", m.Name(), err)
	}
	return &Bundle{
		Version:     fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), uuid.New().String()[:8]),
		CreatedAt:   time.Now(),
		Variant:     m.Name(),
		Seed:        seed,
		Mapping:     mapping,
		Report:      report,
		Importances: importances,
		Model:       raw,
	}, nil
}

// LoadModel reconstructs the fitted classifier carried by the bundle.
func (b *Bundle) LoadModel() (Model, error) {
	var m Model
	switch b.Variant {
	case "random-forest":
		m = &Forest{}
	case "logistic-regression":
		m = &Logistic{}
	case "knn":
		m = &KNN{}
	default:
		return nil, fmt.Errorf("unknown model variant %q in bundle %s", b.Variant, b.Version)
	}
	if err := json.Unmarshal(b.Model, m); err != nil {
		return nil, fmt.Errorf("unmarshal %s model: %w", b.Variant, err)
	}
	return m, nil
}

// BundleVersion is one entry in the bundle index.
type BundleVersion struct {
	Version   string    `json:"version"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Variant   string    `json:"variant"`
	Accuracy  float64   `json:"accuracy"`
	IsActive  bool      `json:"is_active"`
}

// BundleManager versions model bundles on disk so a previous model can be
// inspected or rolled back to.
type BundleManager struct {
	dir       string
	indexFile string
	versions  []BundleVersion
}

// NewBundleManager opens (or starts) the bundle index under dir.
func NewBundleManager(dir string) (*BundleManager, error) {
	bm := &BundleManager{
		dir:       dir,
		indexFile: filepath.Join(dir, "bundle_versions.json"),
	}
	if err := bm.loadIndex(); err != nil {
		log.Warn().Err(err).Msg("Failed to load bundle index, starting fresh")
	}
	return bm, nil
}

// Save writes the bundle to disk, records it in the index, and activates it.
func (bm *BundleManager) Save(b *Bundle) error {
	if err := os.MkdirAll(bm.dir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}

	path := filepath.Join(bm.dir, fmt.Sprintf("bundle-%s.json", b.Version))
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}

	bm.versions = append(bm.versions, BundleVersion{
		Version:   b.Version,
		Path:      path,
		CreatedAt: b.CreatedAt,
		Variant:   b.Variant,
		Accuracy:  b.Report.Accuracy,
	})
	sort.Slice(bm.versions, func(i, j int) bool {
		return bm.versions[i].CreatedAt.After(bm.versions[j].CreatedAt)
	})
	return bm.Activate(b.Version)
}

// Activate marks one version active and all others inactive.
func (bm *BundleManager) Activate(version string) error {
	found := false
	for i := range bm.versions {
		if bm.versions[i].Version == version {
			bm.versions[i].IsActive = true
			found = true
		} else {
			bm.versions[i].IsActive = false
		}
	}
	if !found {
		return fmt.Errorf("bundle version %s not found", version)
	}
	return bm.saveIndex()
}

// LoadActive reads the currently active bundle from disk.
func (bm *BundleManager) LoadActive() (*Bundle, error) {
	for _, v := range bm.versions {
		if !v.IsActive {
			continue
		}
		data, err := os.ReadFile(v.Path)
		if err != nil {
			return nil, fmt.Errorf("read bundle %s: %w", v.Version, err)
		}
		var b Bundle
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("unmarshal bundle %s: %w", v.Version, err)
		}
		return &b, nil
	}
	return nil, fmt.Errorf("no active bundle under %s", bm.dir)
}

// Versions lists all known bundle versions, newest first.
func (bm *BundleManager) Versions() []BundleVersion {
	out := make([]BundleVersion, len(bm.versions))
	copy(out, bm.versions)
	return out
}

func (bm *BundleManager) loadIndex() error {
	data, err := os.ReadFile(bm.indexFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &bm.versions)
}

func (bm *BundleManager) saveIndex() error {
	data, err := json.MarshalIndent(bm.versions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(bm.indexFile, data, 0o600)
}
