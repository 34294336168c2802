// Package codec implements the decompression boundary used by the archive reader.
// A compressed entry is stored as a frame: a 4-byte codec tag, the uncompressed
// size as a little-endian u32, then the codec payload. The registry dispatches a
// frame to the codec registered for its tag, or to a single forced codec.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
)

// FrameHeaderSize is the size of the tag and size hint that precede every payload
const FrameHeaderSize = 8

// Auto selects the codec from each frame's tag
const Auto = "auto"

// DefaultMaxRawSize is the largest uncompressed size a frame may declare before
// it is treated as corrupt
const DefaultMaxRawSize = 256 << 20

var (
	ErrShortFrame      = errors.New("compressed frame too short")
	ErrUnknownCodec    = errors.New("unknown codec")
	ErrImplausibleSize = errors.New("implausible uncompressed size")
)

// Codec decodes one payload. rawSize is the frame's declared uncompressed size and
// capacity the number of output bytes the caller wants (capacity <= rawSize).
type Codec interface {
	Name() string
	Tag() [4]byte
	Decode(payload []byte, rawSize, capacity int) ([]byte, error)
}

var builtin = []Codec{
	oodleCodec{},
	newZstdCodec(),
	zlibCodec{},
	lz4Codec{},
}

// Lookup returns the builtin codec with the given name
func Lookup(name string) (Codec, bool) {
	for _, c := range builtin {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Names returns the names of all builtin codecs, sorted
func Names() []string {
	names := make([]string, 0, len(builtin))
	for _, c := range builtin {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}

// Registry resolves frames to codecs
type Registry struct {
	byTag      map[[4]byte]Codec
	forced     Codec
	maxRawSize int
}

// NewRegistry creates a registry with every builtin codec. When name is not Auto
// (or empty) every frame is decoded with that codec regardless of its tag.
func NewRegistry(name string) (*Registry, error) {
	r := &Registry{
		byTag:      make(map[[4]byte]Codec, len(builtin)),
		maxRawSize: DefaultMaxRawSize,
	}
	for _, c := range builtin {
		r.byTag[c.Tag()] = c
	}

	if name != "" && name != Auto {
		c, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, name)
		}
		r.forced = c
	}

	return r, nil
}

// Default returns a registry that dispatches on frame tags
func Default() *Registry {
	r, _ := NewRegistry(Auto)
	return r
}

// SetMaxRawSize sets the largest declared uncompressed size that is decoded.
// Values <= 0 restore DefaultMaxRawSize.
func (r *Registry) SetMaxRawSize(n int) {
	if n <= 0 {
		n = DefaultMaxRawSize
	}
	r.maxRawSize = n
}

// MaxRawSize returns the largest declared uncompressed size that is decoded
func (r *Registry) MaxRawSize() int {
	return r.maxRawSize
}

// Decompress decodes a frame, returning at most capacity bytes. Frames declaring
// more than MaxRawSize bytes are rejected before any output is allocated.
func (r *Registry) Decompress(frame []byte, capacity int) ([]byte, error) {
	if len(frame) < FrameHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(frame))
	}

	var tag [4]byte
	copy(tag[:], frame[:4])
	rawSize := int(binary.LittleEndian.Uint32(frame[4:8]))
	if rawSize > r.maxRawSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrImplausibleSize, rawSize, r.maxRawSize)
	}

	c := r.forced
	if c == nil {
		var ok bool
		c, ok = r.byTag[tag]
		if !ok {
			return nil, fmt.Errorf("%w: tag %q", ErrUnknownCodec, tag[:])
		}
	}

	if capacity > rawSize {
		capacity = rawSize
	}
	if capacity <= 0 {
		return []byte{}, nil
	}

	out, err := c.Decode(frame[FrameHeaderSize:], rawSize, capacity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	if len(out) > capacity {
		out = out[:capacity]
	}
	return out, nil
}

// readLimited reads exactly capacity bytes from a decoding stream. The buffer
// grows with the decoded output, so a stream that ends early never costs a
// capacity-sized allocation.
func readLimited(r io.Reader, capacity int) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, int64(capacity)))
	if err != nil {
		return nil, err
	}
	if len(out) < capacity {
		return nil, fmt.Errorf("stream ended after %d of %d bytes", len(out), capacity)
	}
	return out, nil
}
