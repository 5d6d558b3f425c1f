// Package boltstore keeps idempotency keys in an embedded BoltDB file for
// deployments that do not want them in Postgres.
package boltstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "idempotency_keys"

// ErrConflict is returned when a key is reused with a different payload.
var ErrConflict = errors.New("idempotency key conflicts with existing request")

type entry struct {
	RequestHash string          `json:"requestHash"`
	Response    json.RawMessage `json:"response"`
	SavedAt     time.Time       `json:"savedAt"`
}

type Store struct {
	db *bolt.DB
}

// Open opens or creates the database file and its bucket.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func storageKey(tenantID, userID, endpoint, key string) []byte {
	return []byte(strings.Join([]string{tenantID, userID, endpoint, key}, "\x00"))
}

// Check returns the stored response for the key if one exists.
func (s *Store) Check(_ context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	var found *entry
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketName)).Get(storageKey(tenantID, userID, endpoint, key))
		if raw == nil {
			return nil
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		found = &e
		return nil
	})
	if err != nil || found == nil {
		return nil, false, err
	}
	if found.RequestHash != requestHash {
		return nil, false, ErrConflict
	}
	return found.Response, true, nil
}

// Save stores the response. A second save with the same hash overwrites the
// response; a different hash is a conflict and nothing is written.
func (s *Store) Save(_ context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		k := storageKey(tenantID, userID, endpoint, key)
		if raw := b.Get(k); raw != nil {
			var existing entry
			if err := json.Unmarshal(raw, &existing); err != nil {
				return err
			}
			if existing.RequestHash != requestHash {
				return ErrConflict
			}
		}
		data, err := json.Marshal(entry{RequestHash: requestHash, Response: response, SavedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		return b.Put(k, data)
	})
}

// Prune removes entries saved before cutoff and reports how many went.
func (s *Store) Prune(cutoff time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			if e.SavedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
