// Package bolt is the persistent media tier: one bbolt file holding a single
// bucket keyed by day.
package bolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/media"
)

// Defaults for Config.
const (
	DefaultMaxSizeMB = 2048
	DefaultBucket    = "media"
	FileName         = "media.db"
)

// ErrStoreFull is returned when a write would grow the file past its maximum
// size. The check adds the value length to the current file size, so it is an
// estimate: an overwrite that could reuse freed pages is still refused, and a
// commit may grow the file by slightly more than the value.
var ErrStoreFull = errors.New("media store full")

// Config locates the store.
type Config struct {
	Dir       string
	Bucket    string
	MaxSizeMB int
}

// Store persists media blobs keyed by day.
type Store struct {
	db       *bbolt.DB
	bucket   []byte
	maxBytes int64
	logger   *zap.Logger
}

var _ media.Store = (*Store)(nil)

// Open creates the directory and database file if needed.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("media directory is required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = DefaultMaxSizeMB
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	path := filepath.Join(cfg.Dir, FileName)
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open media store %s: %w", path, err)
	}
	bucket := []byte(cfg.Bucket)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
	}

	logger.Named("media").Debug("media store opened", zap.String("path", path), zap.Int("max_size_mb", cfg.MaxSizeMB))
	return &Store{
		db:       db,
		bucket:   bucket,
		maxBytes: int64(cfg.MaxSizeMB) << 20,
		logger:   logger.Named("media"),
	}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close media store: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Store writes the blob for d in one transaction, replacing any previous one.
func (s *Store) Store(d day.Index, data []byte, kind media.Kind) error {
	value, err := media.Blob{Kind: kind, Data: data}.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode blob: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Size()+int64(len(value)) > s.maxBytes {
			return ErrStoreFull
		}
		return tx.Bucket(s.bucket).Put(encodeKey(d), value)
	})
	if err != nil {
		return fmt.Errorf("store media for %s: %w", d, err)
	}
	return nil
}

// Get reads the blob for d in one transaction.
func (s *Store) Get(d day.Index) (media.Blob, bool, error) {
	var (
		blob  media.Blob
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get(encodeKey(d))
		if raw == nil {
			return nil
		}
		found = true
		return blob.UnmarshalBinary(raw)
	})
	if err != nil {
		return media.Blob{}, false, fmt.Errorf("get media for %s: %w", d, err)
	}
	return blob, found, nil
}

// Delete removes the blob for d if present.
func (s *Store) Delete(d day.Index) error {
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(encodeKey(d))
	}); err != nil {
		return fmt.Errorf("delete media for %s: %w", d, err)
	}
	return nil
}

// Days lists stored days in ascending order.
func (s *Store) Days() ([]day.Index, error) {
	var days []day.Index
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			days = append(days, decodeKey(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list media days: %w", err)
	}
	return days, nil
}

// encodeKey flips the sign bit so that big-endian byte order matches day order.
func encodeKey(d day.Index) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], uint32(d)^0x80000000)
	return k[:]
}

func decodeKey(k []byte) day.Index {
	return day.Index(int32(binary.BigEndian.Uint32(k) ^ 0x80000000))
}
