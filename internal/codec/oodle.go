package codec

import (
	"fmt"

	"github.com/oriath-net/gooz"
)

// oodleCodec decodes Oodle (Kraken/Mermaid/Selkie) payloads. Oodle has no
// streaming mode, so the full entry is decoded and then truncated.
type oodleCodec struct{}

func (oodleCodec) Name() string { return "oodle" }

func (oodleCodec) Tag() [4]byte { return [4]byte{'O', 'O', 'D', 'L'} }

func (oodleCodec) Decode(payload []byte, rawSize, capacity int) ([]byte, error) {
	out := make([]byte, rawSize)
	n, err := gooz.Decompress(payload, out)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	if n < capacity {
		return nil, fmt.Errorf("decoded %d bytes, wanted %d", n, capacity)
	}
	return out[:capacity], nil
}
