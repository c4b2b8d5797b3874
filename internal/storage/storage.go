// Package storage keeps the service history in BoltDB: every successful
// prediction and every training run is appended to its own bucket.
//
// Keys are the zero-padded UnixNano timestamp followed by the record ID, so a
// cursor walks each bucket in chronological order.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// DBFile is the database file name inside the data directory.
const DBFile = "carprice-history.db"

const (
	predictionsBucket  = "predictions"   // Bucket name for prediction records
	trainingRunsBucket = "training_runs" // Bucket name for training run records
)

// Store provides persistent storage for the service history using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (creating if needed) the history database under dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, DBFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(trainingRunsBucket)); err != nil {
			return fmt.Errorf("create training runs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func recordKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", ts.UnixNano(), id))
}

func timeKey(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%020d", ts.UnixNano()))
}

func put(db *bbolt.DB, bucket string, key []byte, v any) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))

		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s record: %w", bucket, err)
		}
		return b.Put(key, data)
	})
}

// recent returns up to limit records from bucket, newest first.
func recent[T any](db *bbolt.DB, bucket string, limit int) ([]T, error) {
	var records []T
	if limit <= 0 {
		return records, nil
	}

	err := db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var rec T
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// inRange returns the records of bucket stamped within [start, end], oldest
// first.
func inRange[T any](db *bbolt.DB, bucket string, start, end time.Time) ([]T, error) {
	var records []T

	err := db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		startKey := timeKey(start)
		endKey := timeKey(end)

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k[:len(endKey)], endKey) <= 0; k, v = c.Next() {
			var rec T
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

func count(db *bbolt.DB, bucket string) (int, error) {
	var n int
	err := db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(bucket)).Stats().KeyN
		return nil
	})
	return n, err
}
