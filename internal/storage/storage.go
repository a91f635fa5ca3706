package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Storage key prefixes
const (
	prefixSample = "sample/"
	prefixRun    = "run/"
)

// ErrNotFound is returned when a sample or run is not in the store.
var ErrNotFound = errors.New("not found")

// Sample is the feature extraction of one position.
type Sample struct {
	FEN      string    `json:"fen"`
	Bucket   int       `json:"bucket"`
	Mirrored bool      `json:"mirrored"`
	Indices  []int     `json:"indices"`
	RunID    uuid.UUID `json:"run_id"`
}

// Run describes one extraction batch.
type Run struct {
	ID       uuid.UUID `json:"id"`
	Feature  string    `json:"feature"`
	Hash     uint32    `json:"hash"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitzero"`
	Count    int       `json:"count"`
}

// Storage wraps BadgerDB for the sample store
type Storage struct {
	db  *badger.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewStorage opens the store in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens or creates a store in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open sample store: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &Storage{db: db, enc: enc, dec: dec}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.enc != nil {
		s.enc.Close()
	}
	if s.dec != nil {
		s.dec.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SampleKey returns the store key of a FEN.
func SampleKey(fen string) []byte {
	key := make([]byte, len(prefixSample)+8)
	copy(key, prefixSample)
	binary.BigEndian.PutUint64(key[len(prefixSample):], xxhash.Sum64String(fen))
	return key
}

func runKey(id uuid.UUID) []byte {
	return []byte(prefixRun + id.String())
}

func (s *Storage) encodeSample(sample *Sample) ([]byte, error) {
	data, err := json.Marshal(sample)
	if err != nil {
		return nil, err
	}
	return s.enc.EncodeAll(data, nil), nil
}

// PutSample stores a sample, replacing any previous sample of the same FEN.
func (s *Storage) PutSample(sample *Sample) error {
	data, err := s.encodeSample(sample)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(SampleKey(sample.FEN), data)
	})
}

// PutSamples stores a batch of samples in one write batch.
func (s *Storage) PutSamples(samples []Sample) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range samples {
		data, err := s.encodeSample(&samples[i])
		if err != nil {
			return err
		}
		if err := wb.Set(SampleKey(samples[i].FEN), data); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// GetSample loads the sample of a FEN.
func (s *Storage) GetSample(fen string) (*Sample, error) {
	sample := &Sample{}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(SampleKey(fen))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data, err := s.dec.DecodeAll(val, nil)
			if err != nil {
				return fmt.Errorf("decompress sample: %w", err)
			}
			return json.Unmarshal(data, sample)
		})
	})
	if err != nil {
		return nil, err
	}

	// Hash collision
	if sample.FEN != fen {
		return nil, ErrNotFound
	}
	return sample, nil
}

// CountSamples returns the number of stored samples.
func (s *Storage) CountSamples() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixSample)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (s *Storage) saveRun(run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(run.ID), data)
	})
}

// BeginRun records the start of an extraction batch.
func (s *Storage) BeginRun(feature string, hash uint32) (*Run, error) {
	run := &Run{
		ID:      uuid.New(),
		Feature: feature,
		Hash:    hash,
		Started: time.Now(),
	}
	if err := s.saveRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

// FinishRun records the end of an extraction batch.
func (s *Storage) FinishRun(run *Run, count int) error {
	run.Count = count
	run.Finished = time.Now()
	return s.saveRun(run)
}

// GetRun loads one run record.
func (s *Storage) GetRun(id uuid.UUID) (*Run, error) {
	run := &Run{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, run)
		})
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Runs returns all run records, oldest first.
func (s *Storage) Runs() ([]Run, error) {
	var runs []Run

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRun)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var run Run
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			})
			if err != nil {
				return err
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Started.Before(runs[j].Started)
	})
	return runs, nil
}
