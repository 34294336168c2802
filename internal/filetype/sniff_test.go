package filetype

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atex(tag, format string, w, h uint16) []byte {
	b := make([]byte, 32)
	copy(b, tag)
	copy(b[4:], format)
	binary.LittleEndian.PutUint16(b[8:], w)
	binary.LittleEndian.PutUint16(b[10:], h)
	return b
}

func packedEntry(sub string, size int) []byte {
	b := make([]byte, size)
	copy(b, "PA")
	copy(b[8:], sub)
	return b
}

func peImage(peOffset uint32, characteristics uint16) []byte {
	b := make([]byte, int(peOffset)+0x40)
	copy(b, "MZ")
	binary.LittleEndian.PutUint32(b[0x3C:], peOffset)
	copy(b[peOffset:], "PE\x00\x00")
	binary.LittleEndian.PutUint16(b[peOffset+0x16:], characteristics)
	return b
}

func packedAudio(codecID uint32) []byte {
	b := packedEntry("AMP ", 120)
	binary.LittleEndian.PutUint32(b[88:], codecID)
	return b
}

func TestClassify(t *testing.T) {
	t.Parallel()

	riff := func(form string) []byte {
		b := make([]byte, 16)
		copy(b, "RIFF")
		copy(b[8:], form)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want Kind
	}{
		{"atex dxt1", atex("ATEX", "DXT1", 256, 128), ATEXDXT1},
		{"atex dxtl", atex("ATEX", "DXTL", 64, 64), ATEXDXTL},
		{"atex unknown format", atex("ATEX", "ABCD", 64, 64), ATEX},
		{"attx dxt5", atex("ATTX", "DXT5", 32, 32), ATTXDXT5},
		{"dds", []byte("DDS \x7c\x00\x00\x00"), DDS},
		{"png", []byte("\x89PNG\r\n\x1a\n"), PNG},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10}, JPEG},
		{"model", []byte("ffna\x02rest"), Model},
		{"map", []byte("ffna\x03rest"), Map},
		{"other ffna", []byte("ffna\x07rest"), FFNA},
		{"material", []byte("AMAT\x00\x01"), Material},
		{"ogg", []byte("OggS\x00\x02"), OGG},
		{"wav", riff("WAVE"), WAV},
		{"riff", riff("AVI "), RIFF},
		{"mp3 id3", []byte("ID3\x03\x00"), MP3},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x64}, MP3},
		{"string table", packedEntry("TEXT", 32), StringTable},
		{"packed audio", packedAudio(0), AMP},
		{"packed mp3", packedAudio(1), MP3},
		{"packed ogg", packedAudio(2), OGG},
		{"exe", peImage(0x80, 0x0102), EXE},
		{"dll", peImage(0x80, 0x2102), DLL},
		{"mz without pe", append([]byte("MZ"), make([]byte, 0x80)...), Binary},
		{"pe offset too large", func() []byte {
			b := make([]byte, 0x40)
			copy(b, "MZ")
			binary.LittleEndian.PutUint32(b[0x3C:], 0x7FFFFFFF)
			return b
		}(), Binary},
		{"plain text", []byte("Hello, world!\r\n\tindented line\n"), Text},
		{"text starting with PA", []byte("PARTY TIME at the guild hall\n"), Text},
		{"short text starting with PA", []byte("PATH=x\n"), Text},
		{"atex without dimensions", []byte("ATEXDXT1"), ATEXDXT1},
		{"atex tag only", []byte("ATEX"), ATEX},
		{"bare ffna", []byte("ffna"), FFNA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Classify(tt.data)
			require.Equal(t, Classified, res.Status, "status")
			assert.Equal(t, tt.want, res.Kind)
		})
	}
}

func TestClassifyUnclassified(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Unclassified, Classify(nil).Status)
	assert.Equal(t, Unclassified, Classify([]byte{0x00, 0x01, 0x02}).Status)

	// a single non-printable byte anywhere aborts the text fallback
	text := bytes.Repeat([]byte("abc "), 100)
	text[350] = 0x01
	assert.Equal(t, Unclassified, Classify(text).Status)

	// too short for a packed sub-tag and not text
	assert.Equal(t, Unclassified, Classify([]byte("PA\x00\x00")).Status)

	high := []byte("caf\xc3\xa9")
	assert.Equal(t, Unclassified, Classify(high).Status)
}

func TestClassifyNeedMoreBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		need int
	}{
		{"riff", []byte("RIFF\x00\x00"), RIFFHeaderSize},
		{"packed audio", packedEntry("AMP ", 32), PackedAudioHeaderSize},
		{"dos header", []byte("MZ\x90\x00"), 0x40},
		{"pe header", peImage(0x100, 0)[:0x40], 0x100 + 0x18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Classify(tt.data)
			require.Equal(t, NeedMoreBytes, res.Status)
			assert.Equal(t, tt.need, res.Need)
			assert.Greater(t, res.Need, len(tt.data))
		})
	}
}

// Growing the prefix of the same content must converge: every NeedMoreBytes
// asks for more than the previous request and the loop ends.
func TestClassifyConverges(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		peImage(0x200, 0x2000),
		packedAudio(1),
		atex("ATTX", "DXT3", 8, 8),
		append([]byte("RIFF\x10\x00\x00\x00WAVEfmt "), make([]byte, 20)...),
		bytes.Repeat([]byte{0xAB}, 300),
	}

	for _, full := range inputs {
		size := min(4, len(full))
		last := 0
		steps := 0
		for {
			steps++
			require.Less(t, steps, 10, "classification did not converge")

			res := Classify(full[:size])
			if res.Status != NeedMoreBytes {
				break
			}
			assert.Greater(t, res.Need, last)
			last = res.Need
			size = min(res.Need, len(full))
		}
	}
}

func TestStringTableLanguage(t *testing.T) {
	t.Parallel()

	data := packedEntry("TEXT", 40)
	binary.LittleEndian.PutUint16(data[38:], uint16(LanguageGerman))

	lang, ok := StringTableLanguage(data)
	require.True(t, ok)
	assert.Equal(t, LanguageGerman, lang)
	assert.Equal(t, "German", lang.String())

	_, ok = StringTableLanguage(data[:10])
	assert.False(t, ok)

	assert.Equal(t, "Language42", Language(42).String())
}

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	l, ok := ParseLanguage("traditional chinese")
	require.True(t, ok)
	assert.Equal(t, LanguageTraditionalChinese, l)

	_, ok = ParseLanguage("Klingon")
	assert.False(t, ok)

	names := LanguageNames()
	assert.Equal(t, "English", names[0])
	assert.Len(t, names, len(languageNames))
}

func TestKindNames(t *testing.T) {
	t.Parallel()

	for k := Unknown; k < kindCount; k++ {
		name := k.String()
		require.NotEmpty(t, name)
		back, ok := ParseKind(name)
		require.True(t, ok, name)
		assert.Equal(t, k, back)
	}

	_, ok := ParseKind("Hologram")
	assert.False(t, ok)
}

func TestKindFamily(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FamilyTexture, ATEXDXT1.Family())
	assert.Equal(t, FamilyTexture, PNG.Family())
	assert.Equal(t, FamilyModel, Map.Family())
	assert.Equal(t, FamilyAudio, AMP.Family())
	assert.Equal(t, FamilyText, StringTable.Family())
	assert.Equal(t, FamilyBinary, DLL.Family())
	assert.Equal(t, FamilyFont, Font.Family())
	assert.Equal(t, FamilyOther, Unknown.Family())

	assert.True(t, ATTXDXTA.IsGenericTexture())
	assert.False(t, DDS.IsGenericTexture())

	assert.Equal(t, ".atex", ATEXDXT5.Extension())
	assert.Equal(t, ".bin", Unknown.Extension())
}
