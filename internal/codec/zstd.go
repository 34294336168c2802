package codec

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// initialDecodeSize caps the up-front output buffer of a whole-entry decode
const initialDecodeSize = 1 << 20

type zstdCodec struct {
	once    sync.Once
	decoder *zstd.Decoder
	err     error
}

func newZstdCodec() *zstdCodec {
	return &zstdCodec{}
}

func (*zstdCodec) Name() string { return "zstd" }

func (*zstdCodec) Tag() [4]byte { return [4]byte{'Z', 'S', 'T', 'D'} }

// shared returns a decoder used for whole-entry DecodeAll calls, which are safe
// for concurrent use.
func (c *zstdCodec) shared() (*zstd.Decoder, error) {
	c.once.Do(func() {
		c.decoder, c.err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return c.decoder, c.err
}

func (c *zstdCodec) Decode(payload []byte, rawSize, capacity int) ([]byte, error) {
	// Header peeks only need the first few bytes, stream those instead of
	// decoding the whole entry.
	if capacity < rawSize {
		dec, err := zstd.NewReader(bytes.NewReader(payload), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("creating decoder: %w", err)
		}
		defer dec.Close()
		return readLimited(dec, capacity)
	}

	dec, err := c.shared()
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	out, err := dec.DecodeAll(payload, make([]byte, 0, min(rawSize, initialDecodeSize)))
	if err != nil {
		return nil, err
	}
	if len(out) < capacity {
		return nil, fmt.Errorf("decoded %d bytes, wanted %d", len(out), capacity)
	}
	return out, nil
}
