// Package datfile reads the asset archive: its header, master file table and
// identifier table, and the contents of individual slots.
package datfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Decompressor decodes a compressed entry's stored bytes into at most capacity
// bytes. MaxRawSize bounds the size hints the reader accepts.
type Decompressor interface {
	Decompress(frame []byte, capacity int) ([]byte, error)
	MaxRawSize() int
}

// Reader provides random access to the slots of an open archive. It is not safe
// for concurrent use: the single-slot cache is mutated by every read.
type Reader struct {
	file    *os.File
	path    string
	size    int64
	modTime time.Time
	codec   Decompressor

	header  Header
	entries []MFTEntry

	ids       []slotIDs
	baseSlots map[uint32]int
	fileSlots map[uint32]int

	// lastSlot is the slot whose raw on-disk bytes are held in cache. Any
	// successful read of a different slot replaces it.
	lastSlot int
	cache    []byte
}

// Open opens and validates an archive. Compressed slots are decoded with codec;
// a nil codec makes every compressed slot unreadable.
func Open(path string, codec Decompressor) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	r := &Reader{
		file:     file,
		path:     path,
		codec:    codec,
		lastSlot: -1,
	}

	if err := r.load(); err != nil {
		file.Close()
		return nil, err
	}

	slog.Debug("Archive opened",
		"path", path,
		"slots", len(r.entries),
		"identified_slots", len(r.baseSlots))

	return r, nil
}

func (r *Reader) invalid(format string, args ...any) error {
	return &FormatError{Path: r.path, Reason: fmt.Sprintf(format, args...)}
}

func (r *Reader) load() error {
	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("reading archive info: %w", err)
	}
	r.size = info.Size()
	r.modTime = info.ModTime()

	if r.size < HeaderSize {
		return r.invalid("file is %d bytes, shorter than the %d-byte header", r.size, HeaderSize)
	}

	if err := binary.Read(io.NewSectionReader(r.file, 0, HeaderSize), binary.LittleEndian, &r.header); err != nil {
		return fmt.Errorf("reading archive header: %w", err)
	}

	h := r.header
	if h.Magic != Magic {
		return r.invalid("bad magic %q", h.Magic[:])
	}

	if h.MFTOffset > uint64(r.size) || h.MFTSize > uint64(r.size)-h.MFTOffset {
		return r.invalid("master table (offset=%d, size=%d) extends past end of file (%d bytes)",
			h.MFTOffset, h.MFTSize, r.size)
	}

	if err := r.readMasterTable(); err != nil {
		return err
	}

	return r.readIDTable()
}

func (r *Reader) readMasterTable() error {
	h := r.header
	if h.MFTSize < mftRecordSize || h.MFTSize%mftRecordSize != 0 {
		return r.invalid("master table size %d is not a multiple of the %d-byte record size", h.MFTSize, mftRecordSize)
	}

	data := make([]byte, h.MFTSize)
	if _, err := r.file.ReadAt(data, int64(h.MFTOffset)); err != nil {
		return fmt.Errorf("reading master table: %w", err)
	}

	rd := bytes.NewReader(data)

	var mh mftHeader
	if err := binary.Read(rd, binary.LittleEndian, &mh); err != nil {
		return fmt.Errorf("reading master table header: %w", err)
	}

	count := h.MFTSize/mftRecordSize - 1
	if uint64(mh.NumEntries) != count {
		return r.invalid("master table declares %d entries but its size holds %d", mh.NumEntries, count)
	}

	r.entries = make([]MFTEntry, count)
	if err := binary.Read(rd, binary.LittleEndian, &r.entries); err != nil {
		return fmt.Errorf("reading master table entries: %w", err)
	}

	return nil
}

func (r *Reader) readIDTable() error {
	if len(r.entries) <= IDTableSlot {
		return r.invalid("master table has %d entries, no identifier table slot", len(r.entries))
	}

	e := r.entries[IDTableSlot]
	if e.Offset > uint64(r.size) || uint64(e.Size) > uint64(r.size)-e.Offset {
		return r.invalid("identifier table (offset=%d, size=%d) extends past end of file", e.Offset, e.Size)
	}

	data := make([]byte, e.Size)
	if _, err := r.file.ReadAt(data, int64(e.Offset)); err != nil {
		return fmt.Errorf("reading identifier table: %w", err)
	}

	if e.Compressed() {
		if r.codec == nil {
			return r.invalid("identifier table is compressed and no codec is configured")
		}
		if len(data) < 8 {
			return r.invalid("compressed identifier table is %d bytes", len(data))
		}
		rawSize := int(binary.LittleEndian.Uint32(data[4:8]))
		decoded, err := r.codec.Decompress(data, rawSize)
		if err != nil {
			return r.invalid("decompressing identifier table: %v", err)
		}
		data = decoded
	}

	if len(data)%idRecordSize != 0 {
		return r.invalid("identifier table size %d is not a multiple of the %d-byte record size", len(data), idRecordSize)
	}

	records := make([]idRecord, len(data)/idRecordSize)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &records); err != nil {
		return fmt.Errorf("reading identifier table records: %w", err)
	}

	r.buildIDs(records)
	return nil
}

func (r *Reader) buildIDs(records []idRecord) {
	r.ids = make([]slotIDs, len(r.entries))

	dangling := 0
	for _, rec := range records {
		// all-zero records are unused table rows, not references to slot 0
		if rec.FileID == 0 && rec.MFTEntryIndex == 0 {
			continue
		}
		if int64(rec.MFTEntryIndex) >= int64(len(r.entries)) {
			dangling++
			continue
		}
		if rec.FileID == 0 {
			continue
		}

		ids := &r.ids[rec.MFTEntryIndex]
		switch {
		case ids.base == 0:
			ids.base = rec.FileID
		case ids.base == rec.FileID || ids.file == rec.FileID:
		case ids.file == 0:
			ids.file = rec.FileID
			if ids.file < ids.base {
				ids.base, ids.file = ids.file, ids.base
			}
		}
	}

	if dangling > 0 {
		slog.Debug("Identifier table references missing slots", "count", dangling)
	}

	r.baseSlots = make(map[uint32]int)
	r.fileSlots = make(map[uint32]int)
	for slot, ids := range r.ids {
		if ids.base != 0 {
			if _, exists := r.baseSlots[ids.base]; !exists {
				r.baseSlots[ids.base] = slot
			}
		}
		if ids.file != 0 {
			if _, exists := r.fileSlots[ids.file]; !exists {
				r.fileSlots[ids.file] = slot
			}
		}
	}
}

// Close releases the archive. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	r.cache = nil
	r.lastSlot = -1

	if err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	return nil
}

// Path returns the archive's filesystem path
func (r *Reader) Path() string {
	return r.path
}

// ModTime returns the archive's modification time at open
func (r *Reader) ModTime() time.Time {
	return r.modTime
}

// Size returns the archive's size in bytes
func (r *Reader) Size() int64 {
	return r.size
}

// Header returns the parsed archive header
func (r *Reader) Header() Header {
	return r.header
}

// SlotCount returns the number of master table slots, or 0 when closed
func (r *Reader) SlotCount() int {
	if r.file == nil {
		return 0
	}
	return len(r.entries)
}

// Reserved reports whether slot belongs to the archive's own bookkeeping
func (r *Reader) Reserved(slot int) bool {
	return slot < FirstDataSlot
}

// Entry returns the master table record for slot
func (r *Reader) Entry(slot int) (MFTEntry, bool) {
	if !r.valid(slot) {
		return MFTEntry{}, false
	}
	return r.entries[slot], true
}

func (r *Reader) valid(slot int) bool {
	return r.file != nil && slot >= 0 && slot < len(r.entries)
}

// covers reports whether the file is long enough to hold the entry's stored bytes
func (r *Reader) covers(e MFTEntry) bool {
	return e.Offset <= uint64(r.size) && uint64(e.Size) <= uint64(r.size)-e.Offset
}

// EntrySize returns the uncompressed size of slot. For compressed slots the
// size hint stored at offset+4 of the frame is read; a hint above the codec's
// MaxRawSize is reported as unknown.
func (r *Reader) EntrySize(slot int) (uint32, bool) {
	if !r.valid(slot) {
		return 0, false
	}

	e := r.entries[slot]
	if !e.Compressed() {
		return e.Size, true
	}

	var size uint32
	if slot == r.lastSlot && len(r.cache) >= 8 {
		size = binary.LittleEndian.Uint32(r.cache[4:8])
	} else {
		var hint [4]byte
		if _, err := r.file.ReadAt(hint[:], int64(e.Offset)+4); err != nil {
			return 0, false
		}
		size = binary.LittleEndian.Uint32(hint[:])
	}

	if r.codec == nil || uint64(size) > uint64(r.codec.MaxRawSize()) {
		slog.Debug("Rejecting entry size hint", "slot", slot, "hint", size)
		return 0, false
	}
	return size, true
}

// Peek returns up to wanted bytes from the start of slot's content, decompressing
// when needed. An empty result means the slot is unused or unreadable.
func (r *Reader) Peek(slot int, wanted int) []byte {
	if wanted <= 0 || !r.valid(slot) {
		return nil
	}

	e := r.entries[slot]
	if !e.InUse() || !r.covers(e) {
		return nil
	}

	raw, ok := r.raw(slot, e)
	if !ok {
		return nil
	}

	if e.Compressed() {
		if r.codec == nil {
			slog.Warn("No codec configured for compressed entry", "slot", slot)
			return nil
		}
		out, err := r.codec.Decompress(raw, wanted)
		if err != nil {
			slog.Warn("Failed to decompress entry", "slot", slot, "size", e.Size, "error", err)
			return nil
		}
		return out
	}

	out := make([]byte, min(wanted, len(raw)))
	parallelCopy(out, raw)
	return out
}

// Read returns the full uncompressed content of slot
func (r *Reader) Read(slot int) []byte {
	size, ok := r.EntrySize(slot)
	if !ok {
		return nil
	}
	return r.Peek(slot, int(size))
}

// raw returns the stored bytes of slot, from the cache when it was the last slot read
func (r *Reader) raw(slot int, e MFTEntry) ([]byte, bool) {
	if slot == r.lastSlot {
		return r.cache, true
	}

	buf := make([]byte, e.Size)
	if _, err := r.file.ReadAt(buf, int64(e.Offset)); err != nil {
		slog.Debug("Failed to read entry", "slot", slot, "offset", e.Offset, "size", e.Size, "error", err)
		return nil, false
	}

	r.cache = buf
	r.lastSlot = slot
	return buf, true
}

// BaseID returns the smaller identifier mapped to slot
func (r *Reader) BaseID(slot int) (uint32, bool) {
	if !r.valid(slot) || r.ids[slot].base == 0 {
		return 0, false
	}
	return r.ids[slot].base, true
}

// FileID returns the larger identifier mapped to slot when it has two
func (r *Reader) FileID(slot int) (uint32, bool) {
	if !r.valid(slot) || r.ids[slot].file == 0 {
		return 0, false
	}
	return r.ids[slot].file, true
}

// SlotForBaseID returns the lowest slot whose base id is id
func (r *Reader) SlotForBaseID(id uint32) (int, bool) {
	if r.file == nil || id == 0 {
		return 0, false
	}
	slot, ok := r.baseSlots[id]
	return slot, ok
}

// SlotForFileID returns the lowest slot whose file id is id
func (r *Reader) SlotForFileID(id uint32) (int, bool) {
	if r.file == nil || id == 0 {
		return 0, false
	}
	slot, ok := r.fileSlots[id]
	return slot, ok
}

// IdentifiedSlots returns the number of slots carrying at least one identifier
func (r *Reader) IdentifiedSlots() int {
	if r.file == nil {
		return 0
	}
	n := 0
	for _, ids := range r.ids {
		if ids.base != 0 {
			n++
		}
	}
	return n
}
