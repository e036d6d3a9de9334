package handle

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// badgerDurableStore mirrors durable handle records on disk so a
// process restart inside the reconnect window can still answer a
// DHnQ/DHnC reconnect correctly instead of rejecting every durable
// handle as if the server had never seen it. Entirely optional: the
// in-memory default (NewMemDurableStore) is what §6 "Persisted state:
// None required" asks for.
type badgerDurableStore struct {
	db *badger.DB
}

// NewBadgerDurableStore opens (or creates) a badger database at dir and
// wraps it as a DurableStore.
func NewBadgerDurableStore(dir string) (DurableStore, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("handle: opening durable store at %q: %w", dir, err)
	}
	return &badgerDurableStore{db: db}, nil
}

// Close releases the underlying badger database.
func (s *badgerDurableStore) Close() error {
	return s.db.Close()
}

func durableKey(persistentID uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], persistentID)
	return b[:]
}

func (s *badgerDurableStore) Put(rec DurableRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(durableKey(rec.PersistentID), payload)
	})
}

func (s *badgerDurableStore) Get(persistentID uint64) (DurableRecord, bool, error) {
	var rec DurableRecord
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(durableKey(persistentID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return DurableRecord{}, false, err
	}
	return rec, found, nil
}

func (s *badgerDurableStore) Delete(persistentID uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(durableKey(persistentID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func (s *badgerDurableStore) All() ([]DurableRecord, error) {
	var out []DurableRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec DurableRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}
