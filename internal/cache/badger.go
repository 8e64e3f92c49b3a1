package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV implements KV on an embedded BadgerDB. Entries carry their TTL at
// the storage layer, so expiry needs no sweeper of our own.
type BadgerKV struct {
	db *badger.DB
}

// Open opens a Badger-backed KV at path. An empty path opens a purely
// in-memory database, which is what tests use.
func Open(path string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerKV{db: db}, nil
}

// NewBadgerKV wraps an already-open Badger database.
func NewBadgerKV(db *badger.DB) *BadgerKV {
	return &BadgerKV{db: db}
}

func (b *BadgerKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (b *BadgerKV) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
}

func (b *BadgerKV) Incr(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := b.db.Update(func(txn *badger.Txn) error {
		var remaining time.Duration

		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			count = 0
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				count, err = strconv.ParseInt(string(val), 10, 64)
				return err
			}); err != nil {
				return err
			}
			// Re-setting an entry would reset its TTL, so carry the
			// remaining lifetime over to keep the window fixed.
			if exp := item.ExpiresAt(); exp > 0 {
				remaining = time.Until(time.Unix(int64(exp), 0))
				if remaining <= 0 {
					count = 0
					remaining = 0
				}
			}
		}

		count++
		entry := badger.NewEntry([]byte(key), []byte(strconv.FormatInt(count, 10)))
		if remaining > 0 {
			entry = entry.WithTTL(remaining)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (b *BadgerKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
}

func (b *BadgerKV) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.DropPrefix([]byte(prefix))
}

func (b *BadgerKV) Close() error {
	return b.db.Close()
}
