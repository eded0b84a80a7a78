// Package storage persists the pipeline's outputs for downstream consumers
// (the dashboard and report tooling): the cleaned dataset and the per-run
// artifacts. It uses BoltDB as the underlying storage engine.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"telco-churn/internal/dataset"
)

const (
	customersBucket = "customers" // cleaned records keyed by customer ID
	runsBucket      = "runs"      // run artifacts keyed runID/kind
)

// Artifact kinds stored per run.
const (
	ArtifactBundle      = "bundle"
	ArtifactReport      = "report"
	ArtifactImportances = "importances"
)

// Store provides persistent storage for pipeline outputs using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (creating if needed) the database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "churn-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(customersBucket)); err != nil {
			return fmt.Errorf("create customers bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreCustomers writes the cleaned record set, replacing any previous copy
// of each customer.
func (s *Store) StoreCustomers(records []dataset.CustomerRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(customersBucket))
		for i := range records {
			data, err := json.Marshal(&records[i])
			if err != nil {
				return fmt.Errorf("marshal customer %s: %w", records[i].CustomerID, err)
			}
			if err := b.Put([]byte(records[i].CustomerID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCustomers reads back every stored cleaned record.
func (s *Store) GetCustomers() ([]dataset.CustomerRecord, error) {
	var records []dataset.CustomerRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(customersBucket))
		return b.ForEach(func(k, v []byte) error {
			var rec dataset.CustomerRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal customer %s: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}

// StoreArtifact persists one run artifact (bundle, report, importances) under
// the run ID.
func (s *Store) StoreArtifact(runID, kind string, v any) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal artifact %s/%s: %w", runID, kind, err)
		}
		return b.Put([]byte(runID+"/"+kind), data)
	})
}

// GetArtifact reads one run artifact into out.
func (s *Store) GetArtifact(runID, kind string, out any) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		data := b.Get([]byte(runID + "/" + kind))
		if data == nil {
			return fmt.Errorf("artifact %s/%s not found", runID, kind)
		}
		return json.Unmarshal(data, out)
	})
}
