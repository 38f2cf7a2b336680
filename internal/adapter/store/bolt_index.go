package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	"runnerrag/internal/domain"
)

var bucketMeta = []byte("_meta")

// BoltIndex stores one collection as a bbolt bucket named after it. Entries
// are keyed by insertion position so iteration follows rebuild order.
// Search is brute force over an in-memory copy that is reloaded whenever the
// collection's generation changes on disk.
type BoltIndex struct {
	db         *bbolt.DB
	collection []byte

	mu         sync.RWMutex
	entries    []domain.IndexedVector
	generation uint64
}

type storedVector struct {
	ID       string          `json:"id"`
	Text     string          `json:"t"`
	Metadata domain.Metadata `json:"m"`
	Vector   []float32       `json:"v"`
}

// NewBoltIndex opens (or creates) the database file. The collection bucket is
// only created by Rebuild or Query.
func NewBoltIndex(path, collection string) (*BoltIndex, error) {
	if collection == string(bucketMeta) {
		return nil, fmt.Errorf("collection name %q is reserved", collection)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create meta bucket: %w", err)
	}

	return &BoltIndex{
		db:         db,
		collection: []byte(collection),
	}, nil
}

// Rebuild deletes the collection bucket and refills it in one transaction.
func (s *BoltIndex) Rebuild(entries []domain.IndexedVector) error {
	if err := ValidateEntries(entries); err != nil {
		return err
	}

	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		data, err := json.Marshal(storedVector{
			ID:       e.ID,
			Text:     e.Text,
			Metadata: e.Metadata,
			Vector:   e.Embedding,
		})
		if err != nil {
			return err
		}
		encoded[i] = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var generation uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.collection) != nil {
			if err := tx.DeleteBucket(s.collection); err != nil {
				return fmt.Errorf("failed to clear collection: %w", err)
			}
		}
		b, err := tx.CreateBucket(s.collection)
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		for i := range entries {
			if err := b.Put(positionKey(uint64(i)), encoded[i]); err != nil {
				return err
			}
		}

		generation, err = bumpGeneration(tx, s.collection)
		return err
	})
	if err != nil {
		return err
	}

	// Reload so the cache matches what a fresh open would see.
	return s.db.View(func(tx *bbolt.Tx) error {
		return s.loadLocked(tx, generation)
	})
}

// Query returns the k nearest entries. A missing collection is created empty.
func (s *BoltIndex) Query(vector []float32, k int) ([]domain.Match, error) {
	if err := s.ensureCollection(); err != nil {
		return nil, err
	}
	if err := s.refresh(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Rank(vector, s.entries, k)
}

// Count returns the number of entries; 0 if the collection does not exist.
func (s *BoltIndex) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.collection)
		if b == nil {
			return nil
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltIndex) Close() error {
	return s.db.Close()
}

func (s *BoltIndex) ensureCollection() error {
	exists, err := s.Exists()
	if err != nil || exists {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.collection)
		return err
	})
}

// refresh reloads the cache when another writer bumped the generation.
func (s *BoltIndex) refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.View(func(tx *bbolt.Tx) error {
		generation := readGeneration(tx, s.collection)
		if s.entries != nil && generation == s.generation {
			return nil
		}
		return s.loadLocked(tx, generation)
	})
}

func (s *BoltIndex) loadLocked(tx *bbolt.Tx, generation uint64) error {
	entries := make([]domain.IndexedVector, 0)
	b := tx.Bucket(s.collection)
	if b != nil {
		err := b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				slog.Warn("skipping corrupted vector entry", "key", fmt.Sprintf("%x", k), "error", err)
				return nil
			}
			entries = append(entries, domain.IndexedVector{
				ID:        stored.ID,
				Text:      stored.Text,
				Metadata:  stored.Metadata,
				Embedding: stored.Vector,
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to load vectors: %w", err)
		}
	}

	s.entries = entries
	s.generation = generation
	return nil
}

func positionKey(pos uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, pos)
	return key
}

func bumpGeneration(tx *bbolt.Tx, collection []byte) (uint64, error) {
	meta := tx.Bucket(bucketMeta)
	next := readGeneration(tx, collection) + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	return next, meta.Put(collection, buf)
}

func readGeneration(tx *bbolt.Tx, collection []byte) uint64 {
	meta := tx.Bucket(bucketMeta)
	if meta == nil {
		return 0
	}
	v := meta.Get(collection)
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

// Exists reports whether the collection bucket has been created.
func (s *BoltIndex) Exists() (bool, error) {
	exists := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(s.collection) != nil
		return nil
	})
	return exists, err
}
