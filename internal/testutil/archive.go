// Package testutil builds synthetic archives for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

const (
	headerSize   = 32
	recordSize   = 16
	idRecordSize = 8
	idTableSlot  = 2
)

// Slot describes the content of one master table slot.
type Slot struct {
	Data []byte
	// Codec compresses Data into a frame when set ("zstd", "zlib" or "lz4").
	Codec string
	// Raw overrides the stored bytes and marks the slot compressed when
	// Compressed is set. Used to store malformed frames.
	Raw        []byte
	Compressed bool
}

// IDRecord is one identifier table record, written in insertion order.
type IDRecord struct {
	FileID uint32
	Slot   uint32
}

// Builder assembles an archive in memory. Slots that are never set stay unused,
// and slot 2 holds the identifier table built from AddID calls.
type Builder struct {
	slots   []*Slot
	ids     []IDRecord
	idTable []byte
}

// NewBuilder creates a builder for an archive with slotCount slots
func NewBuilder(slotCount int) *Builder {
	return &Builder{
		slots: make([]*Slot, slotCount),
	}
}

// Set stores content in a slot
func (b *Builder) Set(slot int, s Slot) *Builder {
	b.slots[slot] = &s
	return b
}

// SetData stores raw bytes in a slot
func (b *Builder) SetData(slot int, data []byte) *Builder {
	return b.Set(slot, Slot{Data: data})
}

// AddID appends an identifier table record mapping id to slot
func (b *Builder) AddID(slot int, id uint32) *Builder {
	b.ids = append(b.ids, IDRecord{FileID: id, Slot: uint32(slot)})
	return b
}

// AddRecord appends an arbitrary identifier table record
func (b *Builder) AddRecord(rec IDRecord) *Builder {
	b.ids = append(b.ids, rec)
	return b
}

// SetIDTable replaces the generated identifier table with raw bytes
func (b *Builder) SetIDTable(raw []byte) *Builder {
	b.idTable = raw
	return b
}

// Bytes encodes the archive
func (b *Builder) Bytes(tb testing.TB) []byte {
	tb.Helper()

	var buf bytes.Buffer
	buf.Write(make([]byte, headerSize))

	type record struct {
		Offset      uint64
		Size        uint32
		Compression uint16
		Flags       uint16
	}
	records := make([]record, len(b.slots))

	for i, s := range b.slots {
		var stored []byte
		var compressed bool

		switch {
		case i == idTableSlot && s == nil:
			stored = b.encodeIDTable()
		case s == nil:
			continue
		case s.Raw != nil:
			stored = s.Raw
			compressed = s.Compressed
		case s.Codec != "":
			stored = EncodeFrame(tb, s.Codec, s.Data)
			compressed = true
		default:
			stored = s.Data
		}

		records[i] = record{
			Offset: uint64(buf.Len()),
			Size:   uint32(len(stored)),
			Flags:  1,
		}
		if compressed {
			records[i].Compression = 1
		}
		buf.Write(stored)
	}

	mftOffset := uint64(buf.Len())
	sub := make([]byte, recordSize)
	binary.LittleEndian.PutUint32(sub, uint32(len(records)))
	buf.Write(sub)
	for _, r := range records {
		require.NoError(tb, binary.Write(&buf, binary.LittleEndian, r), "writing record")
	}
	mftSize := uint64(buf.Len()) - mftOffset

	out := buf.Bytes()
	copy(out[0:4], []byte{'3', 'A', 'N', 0x1a})
	binary.LittleEndian.PutUint32(out[4:], headerSize)
	binary.LittleEndian.PutUint32(out[8:], 512)
	binary.LittleEndian.PutUint64(out[16:], mftOffset)
	binary.LittleEndian.PutUint64(out[24:], mftSize)

	return out
}

// Write encodes the archive into dir and returns its path
func (b *Builder) Write(tb testing.TB, dir string) string {
	tb.Helper()

	path := filepath.Join(dir, "test.dat")
	require.NoError(tb, os.WriteFile(path, b.Bytes(tb), 0o644), "writing archive")
	return path
}

func (b *Builder) encodeIDTable() []byte {
	if b.idTable != nil {
		return b.idTable
	}
	out := make([]byte, len(b.ids)*idRecordSize)
	for i, rec := range b.ids {
		binary.LittleEndian.PutUint32(out[i*idRecordSize:], rec.FileID)
		binary.LittleEndian.PutUint32(out[i*idRecordSize+4:], rec.Slot)
	}
	return out
}

// EncodeFrame compresses data with the named codec and prepends the frame header
func EncodeFrame(tb testing.TB, codec string, data []byte) []byte {
	tb.Helper()

	var tag string
	var payload bytes.Buffer

	switch codec {
	case "zstd":
		tag = "ZSTD"
		enc, err := zstd.NewWriter(nil)
		require.NoError(tb, err, "creating zstd encoder")
		payload.Write(enc.EncodeAll(data, nil))
		enc.Close()
	case "zlib":
		tag = "ZLIB"
		zw := zlib.NewWriter(&payload)
		_, err := zw.Write(data)
		require.NoError(tb, err, "writing zlib payload")
		require.NoError(tb, zw.Close(), "closing zlib writer")
	case "lz4":
		tag = "LZ4F"
		zw := lz4.NewWriter(&payload)
		_, err := zw.Write(data)
		require.NoError(tb, err, "writing lz4 payload")
		require.NoError(tb, zw.Close(), "closing lz4 writer")
	default:
		require.FailNowf(tb, "unsupported test codec", "%q", codec)
	}

	frame := make([]byte, 8, 8+payload.Len())
	copy(frame, tag)
	binary.LittleEndian.PutUint32(frame[4:], uint32(len(data)))
	return append(frame, payload.Bytes()...)
}
