// Package blacklist keeps a persistent set of coordinator addresses a node
// must never join.
//
// Entries live in a LevelDB database so an operator can exclude a
// misbehaving parent once and have the exclusion survive restarts. A
// short address only matches short addresses and an extended address only
// matches extended ones.
package blacklist

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// ErrNoAddress is returned when an address has mode none.
var ErrNoAddress = errors.New("blacklist: address has no mode")

const (
	prefixShort = 's'
	prefixExt   = 'e'
)

// Entry is a stored blacklist record.
type Entry struct {
	Addr    mac.Addr  `json:"-"`
	Reason  string    `json:"reason,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// List is a blacklist backed by LevelDB.
type List struct {
	db     *leveldb.DB
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a List.
type Option func(*List)

// WithLogger sets the logger used for lookup failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *List) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock sets the time source for AddedAt.
func WithClock(now func() time.Time) Option {
	return func(b *List) { b.now = now }
}

// Open opens (or creates) a blacklist database at path.
func Open(path string, opts ...Option) (*List, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("blacklist: open %s: %w", path, err)
	}
	return newList(db, opts), nil
}

// OpenMemory creates a blacklist that is not persisted.
func OpenMemory(opts ...Option) (*List, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("blacklist: open memory: %w", err)
	}
	return newList(db, opts), nil
}

func newList(db *leveldb.DB, opts []Option) *List {
	b := &List{
		db:     db,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "blacklist")
	return b
}

// Close closes the database.
func (b *List) Close() error {
	return b.db.Close()
}

// Add blacklists addr. Adding an existing address replaces its reason.
func (b *List) Add(addr mac.Addr, reason string) error {
	key, err := keyOf(addr)
	if err != nil {
		return err
	}
	val, err := json.Marshal(Entry{Reason: reason, AddedAt: b.now()})
	if err != nil {
		return err
	}
	return b.db.Put(key, val, nil)
}

// Remove deletes addr. Removing an unknown address is not an error.
func (b *List) Remove(addr mac.Addr) error {
	key, err := keyOf(addr)
	if err != nil {
		return err
	}
	return b.db.Delete(key, nil)
}

// Contains reports whether addr is blacklisted. Lookup failures are
// logged and treated as not listed.
func (b *List) Contains(addr mac.Addr) bool {
	key, err := keyOf(addr)
	if err != nil {
		return false
	}
	ok, err := b.db.Has(key, nil)
	if err != nil {
		b.logger.Warn("lookup failed", "addr", addr, "error", err)
		return false
	}
	return ok
}

// Get returns the entry for addr.
func (b *List) Get(addr mac.Addr) (Entry, bool, error) {
	key, err := keyOf(addr)
	if err != nil {
		return Entry{}, false, err
	}
	val, err := b.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	e, err := decode(key, val)
	return e, err == nil, err
}

// Entries returns every entry, short addresses first.
func (b *List) Entries() ([]Entry, error) {
	var out []Entry
	for _, prefix := range []byte{prefixShort, prefixExt} {
		it := b.db.NewIterator(util.BytesPrefix([]byte{prefix}), nil)
		for it.Next() {
			e, err := decode(it.Key(), it.Value())
			if err != nil {
				it.Release()
				return nil, err
			}
			out = append(out, e)
		}
		it.Release()
		if err := it.Error(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Clear removes every entry.
func (b *List) Clear() error {
	batch := new(leveldb.Batch)
	it := b.db.NewIterator(nil, nil)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}
	return b.db.Write(batch, nil)
}

func keyOf(addr mac.Addr) ([]byte, error) {
	switch addr.Mode {
	case mac.AddrModeShort:
		return binary.BigEndian.AppendUint16([]byte{prefixShort}, addr.Short), nil
	case mac.AddrModeExtended:
		return append([]byte{prefixExt}, addr.Ext[:]...), nil
	default:
		return nil, ErrNoAddress
	}
}

func decode(key, val []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return Entry{}, fmt.Errorf("blacklist: decode %x: %w", key, err)
	}
	switch {
	case len(key) == 3 && key[0] == prefixShort:
		e.Addr = mac.ShortAddr(binary.BigEndian.Uint16(key[1:]))
	case len(key) == 1+mac.ExtAddrLen && key[0] == prefixExt:
		var ext mac.ExtAddr
		copy(ext[:], key[1:])
		e.Addr = mac.ExtendedAddr(ext)
	default:
		return Entry{}, fmt.Errorf("blacklist: bad key %x", key)
	}
	return e, nil
}
