package boltsecurestore

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/tdex-network/tdex-vault/pkg/securestore"
	bolt "go.etcd.io/bbolt"
)

const (
	// DefaultDBTimeout is how long to wait for the file lock of the DB.
	DefaultDBTimeout = time.Second
)

var (
	// RootBucketName is the name of the bucket holding every record.
	RootBucketName = []byte("vault")
)

type boltStorage struct {
	db *bolt.DB
}

// NewStorage creates a bolt instance of the securestore.Storage interface.
func NewStorage(datadir, filename string) (securestore.Storage, error) {
	if err := os.MkdirAll(datadir, 0700); err != nil {
		return nil, err
	}

	db, err := bolt.Open(
		filepath.Join(datadir, filename), 0600,
		&bolt.Options{Timeout: DefaultDBTimeout},
	)
	if err != nil {
		return nil, err
	}

	// If the store's bucket doesn't exist, create it.
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(RootBucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &boltStorage{db}, nil
}

func (s *boltStorage) Get(keys ...string) (map[string][]byte, error) {
	values := make(map[string][]byte)
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		for _, key := range keys {
			if len(key) <= 0 {
				return ErrMissingDataKey
			}
			v := bucket.Get([]byte(key))
			if v == nil {
				continue
			}
			// Values are only valid for the life of the transaction.
			value := make([]byte, len(v))
			copy(value, v)
			values[key] = value
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *boltStorage) Set(valuesByKey map[string][]byte) error {
	for key, value := range valuesByKey {
		if len(key) <= 0 {
			return ErrMissingDataKey
		}
		if len(value) <= 0 {
			return ErrMissingData
		}
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}
		for key, value := range valuesByKey {
			if err := bucket.Put([]byte(key), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *boltStorage) Remove(keys ...string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}
		for _, key := range keys {
			if len(key) <= 0 {
				return ErrMissingDataKey
			}
			if err := bucket.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *boltStorage) Keys(prefix string) ([]string, error) {
	keys := make([]string, 0)
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}

		c := bucket.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *boltStorage) Reset() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(RootBucketName); err != nil &&
			err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(RootBucketName)
		return err
	})
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}
