package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/MrWong99/soundalike/internal/oracle"
)

// keyPrefix namespaces oracle entries so the store can be shared.
const keyPrefix = "oracle/"

// Badger is a persistent oracle cache backed by an embedded Badger database.
// Responses survive restarts, which avoids paying for the same oracle call
// twice across CLI runs.
type Badger struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadger opens (or creates) a Badger database at path. An empty path
// opens an in-memory database. A zero ttl keeps entries forever.
func OpenBadger(path string, ttl time.Duration) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(slogLogger{})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger at %q: %w", path, err)
	}
	return &Badger{db: db, ttl: ttl}, nil
}

// Get implements oracle.Cache.
func (b *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: badger get: %w", err)
	}
	return val, true, nil
}

// Set implements oracle.Cache.
func (b *Badger) Set(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), value)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("cache: badger set: %w", err)
	}
	return nil
}

// Close flushes and closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// slogLogger routes Badger's internal logging through slog. Badger is chatty
// at info level, so info is demoted to debug.
type slogLogger struct{}

func (slogLogger) Errorf(f string, v ...any)   { slog.Error(badgerMsg(f, v)) }
func (slogLogger) Warningf(f string, v ...any) { slog.Warn(badgerMsg(f, v)) }
func (slogLogger) Infof(f string, v ...any)    { slog.Debug(badgerMsg(f, v)) }
func (slogLogger) Debugf(f string, v ...any)   { slog.Debug(badgerMsg(f, v)) }

func badgerMsg(f string, v []any) string {
	return "badger: " + strings.TrimSpace(fmt.Sprintf(f, v...))
}

var _ oracle.Cache = (*Badger)(nil)
