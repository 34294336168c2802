package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/datscan/internal/testutil"
)

func sampleData() []byte {
	return bytes.Repeat([]byte("ATEXDXT1 sample texture payload "), 64)
}

func TestRegistryDecompress(t *testing.T) {
	t.Parallel()

	data := sampleData()
	for _, name := range []string{"zstd", "zlib", "lz4"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			frame := testutil.EncodeFrame(t, name, data)
			r := Default()

			full, err := r.Decompress(frame, len(data))
			require.NoError(t, err)
			assert.Equal(t, data, full)

			prefix, err := r.Decompress(frame, 32)
			require.NoError(t, err)
			assert.Equal(t, data[:32], prefix)
		})
	}
}

func TestRegistryCapacityClampedToRawSize(t *testing.T) {
	t.Parallel()

	data := []byte("short entry")
	frame := testutil.EncodeFrame(t, "zlib", data)

	out, err := Default().Decompress(frame, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestRegistryZeroCapacity(t *testing.T) {
	t.Parallel()

	frame := testutil.EncodeFrame(t, "lz4", sampleData())

	out, err := Default().Decompress(frame, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRegistryErrors(t *testing.T) {
	t.Parallel()

	t.Run("short frame", func(t *testing.T) {
		_, err := Default().Decompress([]byte{'Z', 'S'}, 4)
		assert.ErrorIs(t, err, ErrShortFrame)
	})

	t.Run("unknown tag", func(t *testing.T) {
		frame := make([]byte, 16)
		copy(frame, "NOPE")
		binary.LittleEndian.PutUint32(frame[4:], 8)
		_, err := Default().Decompress(frame, 8)
		assert.ErrorIs(t, err, ErrUnknownCodec)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		frame := testutil.EncodeFrame(t, "zlib", sampleData())
		frame = frame[:FrameHeaderSize+6]
		_, err := Default().Decompress(frame, 64)
		assert.Error(t, err)
	})

	t.Run("stream shorter than hint", func(t *testing.T) {
		frame := testutil.EncodeFrame(t, "lz4", []byte("tiny"))
		binary.LittleEndian.PutUint32(frame[4:], 4096)
		_, err := Default().Decompress(frame, 4096)
		assert.Error(t, err)
	})
}

func TestRegistryRejectsImplausibleSizeHint(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"zstd", "zlib", "lz4"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			frame := testutil.EncodeFrame(t, name, sampleData())
			binary.LittleEndian.PutUint32(frame[4:], 0xFFFFFFF0)

			_, err := Default().Decompress(frame, 32)
			assert.ErrorIs(t, err, ErrImplausibleSize)
			_, err = Default().Decompress(frame, 0xFFFFFFF0)
			assert.ErrorIs(t, err, ErrImplausibleSize)
		})
	}

	t.Run("oodle", func(t *testing.T) {
		t.Parallel()

		frame := make([]byte, 40)
		copy(frame, "OODL")
		binary.LittleEndian.PutUint32(frame[4:], 0xFFFFFFF0)
		_, err := Default().Decompress(frame, 32)
		assert.ErrorIs(t, err, ErrImplausibleSize)
	})
}

func TestRegistryMaxRawSize(t *testing.T) {
	t.Parallel()

	data := sampleData()
	frame := testutil.EncodeFrame(t, "zlib", data)

	r := Default()
	assert.Equal(t, DefaultMaxRawSize, r.MaxRawSize())

	r.SetMaxRawSize(len(data) - 1)
	_, err := r.Decompress(frame, 32)
	assert.ErrorIs(t, err, ErrImplausibleSize)

	r.SetMaxRawSize(len(data))
	out, err := r.Decompress(frame, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)

	r.SetMaxRawSize(0)
	assert.Equal(t, DefaultMaxRawSize, r.MaxRawSize())
}

func TestReadLimitedGrowsWithOutput(t *testing.T) {
	t.Parallel()

	out, err := readLimited(bytes.NewReader([]byte("abcdef")), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), out)

	_, err = readLimited(bytes.NewReader([]byte("abc")), 200<<20)
	assert.ErrorContains(t, err, "stream ended after 3 of")
}

func TestForcedCodecIgnoresTag(t *testing.T) {
	t.Parallel()

	data := sampleData()
	frame := testutil.EncodeFrame(t, "zstd", data)
	copy(frame, "XXXX")

	_, err := Default().Decompress(frame, len(data))
	require.ErrorIs(t, err, ErrUnknownCodec)

	r, err := NewRegistry("zstd")
	require.NoError(t, err)
	out, err := r.Decompress(frame, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestNewRegistryUnknownName(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry("brotli")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"lz4", "oodle", "zlib", "zstd"}, Names())

	c, ok := Lookup("oodle")
	require.True(t, ok)
	assert.Equal(t, [4]byte{'O', 'O', 'D', 'L'}, c.Tag())
}
