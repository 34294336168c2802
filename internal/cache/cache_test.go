package cache

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// murmurReference is the unrolled form of the tail handling
func murmurReference(data []byte, seed uint64) uint64 {
	const (
		m = 0xc6a4a7935bd1e995
		r = 47
	)
	h := seed ^ (uint64(len(data)) * m)
	n := len(data) / 8 * 8
	for i := 0; i < n; i += 8 {
		k := binary.LittleEndian.Uint64(data[i:])
		k *= m
		k ^= k >> r
		k *= m
		h ^= k
		h *= m
	}
	tail := data[n:]
	switch len(tail) {
	case 7:
		h ^= uint64(tail[6]) << 48
		fallthrough
	case 6:
		h ^= uint64(tail[5]) << 40
		fallthrough
	case 5:
		h ^= uint64(tail[4]) << 32
		fallthrough
	case 4:
		h ^= uint64(tail[3]) << 24
		fallthrough
	case 3:
		h ^= uint64(tail[2]) << 16
		fallthrough
	case 2:
		h ^= uint64(tail[1]) << 8
		fallthrough
	case 1:
		h ^= uint64(tail[0])
		h *= m
	}
	h ^= h >> r
	h *= m
	h ^= h >> r
	return h
}

func TestMurmurHash64A(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), MurmurHash64A(nil, 0))

	data := []byte("data/archive/gw.dat and some more bytes")
	for n := 0; n <= len(data); n++ {
		assert.Equal(t, murmurReference(data[:n], fingerprintSeed), MurmurHash64A(data[:n], fingerprintSeed), "length %d", n)
	}
}

func TestPathFingerprint(t *testing.T) {
	t.Parallel()

	a := PathFingerprint("/games/gw/Gw.dat")
	assert.Equal(t, a, PathFingerprint("/games/gw/./Gw.dat"))
	assert.Equal(t, a, PathFingerprint("/games/gw/sub/../Gw.dat"))
	assert.NotEqual(t, a, PathFingerprint("/games/gw/gw.dat"))
	assert.NotEqual(t, a, PathFingerprint("/games/gw2/Gw.dat"))
}

func TestCatalogPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	d := New(root)
	assert.Equal(t, root, d.Root())
	assert.Equal(t, filepath.Join(root, "catalogs"), d.CatalogDir())

	archive := filepath.Join(root, "Gw.dat")
	path, err := d.CatalogPath(archive)
	require.NoError(t, err)
	assert.Equal(t, d.CatalogDir(), filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".db"))
	assert.Len(t, filepath.Base(path), 16+len(".db"))

	again, err := d.CatalogPath(archive)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	other, err := d.CatalogPath(filepath.Join(root, "Other.dat"))
	require.NoError(t, err)
	assert.NotEqual(t, path, other)
}

func TestDefaultRoot(t *testing.T) {
	t.Parallel()

	d := New("")
	assert.Equal(t, DefaultDirName, filepath.Base(d.Root()))
}

func TestFileHelpers(t *testing.T) {
	t.Parallel()

	d := New(t.TempDir())
	dir := filepath.Join(d.Root(), "a", "b")
	require.NoError(t, d.EnsureDir(dir))

	file := filepath.Join(dir, "f.bin")
	assert.False(t, FileExists(file))
	assert.Equal(t, int64(0), FileSize(file))

	require.NoError(t, os.WriteFile(file, []byte("12345"), 0o644))
	assert.True(t, FileExists(file))
	assert.Equal(t, int64(5), FileSize(file))
}
