package codec

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

type zlibCodec struct{}

func (zlibCodec) Name() string { return "zlib" }

func (zlibCodec) Tag() [4]byte { return [4]byte{'Z', 'L', 'I', 'B'} }

func (zlibCodec) Decode(payload []byte, rawSize, capacity int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("reading zlib header: %w", err)
	}
	defer zr.Close()
	return readLimited(zr, capacity)
}

// lz4Codec decodes LZ4 frame format payloads
type lz4Codec struct{}

func (lz4Codec) Name() string { return "lz4" }

func (lz4Codec) Tag() [4]byte { return [4]byte{'L', 'Z', '4', 'F'} }

func (lz4Codec) Decode(payload []byte, rawSize, capacity int) ([]byte, error) {
	return readLimited(lz4.NewReader(bytes.NewReader(payload)), capacity)
}
