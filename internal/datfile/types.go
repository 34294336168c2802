package datfile

import (
	"errors"
	"fmt"
)

const (
	// HeaderSize is the size of the archive header at offset 0
	HeaderSize = 32
	// IDTableSlot is the master table slot reserved for the identifier table
	IDTableSlot = 2
	// FirstDataSlot is the first slot that can hold an asset. Slots below it
	// belong to the archive's own bookkeeping.
	FirstDataSlot = 3

	mftRecordSize = 16
	idRecordSize  = 8
)

// Magic identifies the archive format
var Magic = [4]byte{'3', 'A', 'N', 0x1a}

// Header is the fixed record at offset 0
type Header struct {
	Magic      [4]byte
	HeaderSize uint32
	SectorSize uint32
	CRC        uint32
	MFTOffset  uint64
	MFTSize    uint64
}

// mftHeader precedes the master table records and is padded to one record
type mftHeader struct {
	NumEntries uint32
	_          [12]byte
}

// MFTEntry is one master table record. The slot number is its index.
type MFTEntry struct {
	Offset           uint64
	Size             uint32
	CompressionFlags uint16
	EntryFlags       uint16
}

// Compressed reports whether the entry is stored as a codec frame
func (e MFTEntry) Compressed() bool {
	return e.CompressionFlags&1 != 0
}

// InUse reports whether the slot holds data
func (e MFTEntry) InUse() bool {
	return e.EntryFlags&1 != 0
}

type idRecord struct {
	FileID        uint32
	MFTEntryIndex uint32
}

// slotIDs holds the identifiers mapped to one slot. base <= file when both are set.
type slotIDs struct {
	base uint32
	file uint32
}

// ErrInvalidArchive is wrapped by every structural error returned from Open
var ErrInvalidArchive = errors.New("invalid archive")

// FormatError describes why an archive failed structural validation
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidArchive
}
