package badgersecurestore

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/tdex-network/tdex-vault/pkg/securestore"
	"github.com/timshannon/badgerhold/v4"
)

type record struct {
	Key   string
	Value []byte
}

type badgerStorage struct {
	store *badgerhold.Store
}

// NewStorage opens (or creates if not exists) the badger store on disk. An
// empty dbDir opens an in-memory badger instance, useful for testing.
func NewStorage(dbDir string, logger badger.Logger) (securestore.Storage, error) {
	var opts badger.Options
	if len(dbDir) <= 0 {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dbDir)
		opts.Compression = options.ZSTD
	}
	opts.Logger = logger

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}
	return &badgerStorage{store}, nil
}

func (s *badgerStorage) Get(keys ...string) (map[string][]byte, error) {
	values := make(map[string][]byte)
	err := s.store.Badger().View(func(tx *badger.Txn) error {
		for _, key := range keys {
			var r record
			if err := s.store.TxGet(tx, key, &r); err != nil {
				if err == badgerhold.ErrNotFound {
					continue
				}
				return err
			}
			values[key] = r.Value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s *badgerStorage) Set(valuesByKey map[string][]byte) error {
	return s.store.Badger().Update(func(tx *badger.Txn) error {
		for key, value := range valuesByKey {
			r := record{Key: key, Value: append([]byte{}, value...)}
			if err := s.store.TxUpsert(tx, key, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *badgerStorage) Remove(keys ...string) error {
	return s.store.Badger().Update(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := s.store.TxDelete(tx, key, record{}); err != nil {
				if err == badgerhold.ErrNotFound {
					continue
				}
				return err
			}
		}
		return nil
	})
}

func (s *badgerStorage) Keys(prefix string) ([]string, error) {
	records, err := s.findAll()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, r := range records {
		if strings.HasPrefix(r.Key, prefix) {
			keys = append(keys, r.Key)
		}
	}
	return keys, nil
}

func (s *badgerStorage) Reset() error {
	records, err := s.findAll()
	if err != nil {
		return err
	}
	return s.store.Badger().Update(func(tx *badger.Txn) error {
		for _, r := range records {
			if err := s.store.TxDelete(tx, r.Key, record{}); err != nil &&
				err != badgerhold.ErrNotFound {
				return err
			}
		}
		return nil
	})
}

func (s *badgerStorage) Close() error {
	return s.store.Close()
}

func (s *badgerStorage) findAll() ([]record, error) {
	var records []record
	if err := s.store.Find(&records, nil); err != nil {
		return nil, err
	}
	return records, nil
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	var buff bytes.Buffer
	de := json.NewDecoder(&buff)

	_, err := buff.Write(data)
	if err != nil {
		return err
	}

	return de.Decode(value)
}
