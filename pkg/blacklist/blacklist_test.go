package blacklist

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nghiaquy1991/PAN/pkg/mac"
)

var (
	coordExt = mac.ExtAddr{0x00, 0x12, 0x4b, 0x00, 0x00, 0x00, 0x00, 0xc0}
	otherExt = mac.ExtAddr{0x00, 0x12, 0x4b, 0x00, 0x00, 0x00, 0x00, 0xc1}
)

func openMemory(t *testing.T, opts ...Option) *List {
	t.Helper()
	b, err := OpenMemory(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestContainsMatchesMode(t *testing.T) {
	b := openMemory(t)
	require.NoError(t, b.Add(mac.ShortAddr(0x0001), "flaky"))
	require.NoError(t, b.Add(mac.ExtendedAddr(coordExt), ""))

	tests := []struct {
		name string
		addr mac.Addr
		want bool
	}{
		{"short listed", mac.ShortAddr(0x0001), true},
		{"short other", mac.ShortAddr(0x0002), false},
		{"ext listed", mac.ExtendedAddr(coordExt), true},
		{"ext other", mac.ExtendedAddr(otherExt), false},
		{"none", mac.Addr{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Contains(tt.addr))
		})
	}
}

func TestAddRemove(t *testing.T) {
	b := openMemory(t)
	addr := mac.ExtendedAddr(coordExt)

	require.NoError(t, b.Add(addr, "bad parent"))
	assert.True(t, b.Contains(addr))

	require.NoError(t, b.Remove(addr))
	assert.False(t, b.Contains(addr))

	assert.NoError(t, b.Remove(addr))
	assert.ErrorIs(t, b.Add(mac.Addr{}, ""), ErrNoAddress)
	assert.ErrorIs(t, b.Remove(mac.Addr{}), ErrNoAddress)
}

func TestGetAndEntries(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := openMemory(t, WithClock(func() time.Time { return at }))

	require.NoError(t, b.Add(mac.ExtendedAddr(coordExt), "loops"))
	require.NoError(t, b.Add(mac.ShortAddr(0x00aa), "weak"))

	e, ok, err := b.Get(mac.ShortAddr(0x00aa))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "weak", e.Reason)
	assert.True(t, e.AddedAt.Equal(at))
	assert.True(t, e.Addr.Equal(mac.ShortAddr(0x00aa)))

	_, ok, err = b.Get(mac.ShortAddr(0x00bb))
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := b.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Addr.Equal(mac.ShortAddr(0x00aa)))
	assert.True(t, entries[1].Addr.Equal(mac.ExtendedAddr(coordExt)))
	assert.Equal(t, "loops", entries[1].Reason)

	require.NoError(t, b.Clear())
	entries, err = b.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist")

	b, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, b.Add(mac.ExtendedAddr(coordExt), "manual"))
	require.NoError(t, b.Close())

	b, err = Open(path)
	require.NoError(t, err)
	defer b.Close()
	assert.True(t, b.Contains(mac.ExtendedAddr(coordExt)))
}
