package filetype

import (
	"bytes"
	"encoding/binary"
)

// Status is the outcome of a classification attempt
type Status uint8

const (
	Unclassified Status = iota
	Classified
	// NeedMoreBytes means the prefix was too short; Result.Need holds the
	// prefix length required to continue.
	NeedMoreBytes
)

func (s Status) String() string {
	switch s {
	case Classified:
		return "classified"
	case NeedMoreBytes:
		return "need-more-bytes"
	}
	return "unclassified"
}

// Result of Classify
type Result struct {
	Status Status
	Kind   Kind
	Need   int
}

const (
	// TextureHeaderSize covers the format tag and the u16 width/height at 8 and 10
	TextureHeaderSize = 12
	// PackedHeaderSize covers a packed entry's sub-tag at offset 8
	PackedHeaderSize = 12
	// PackedAudioHeaderSize covers a packed audio entry's codec id at offset 88
	PackedAudioHeaderSize = 92
	// RIFFHeaderSize covers the RIFF form type at offset 8
	RIFFHeaderSize = 12

	dosHeaderSize = 0x40
	peOffsetField = 0x3C
	peHeaderSpan  = 0x18
	maxPEOffset   = 1 << 16

	dllCharacteristic = 0x2000
)

var (
	atexKinds = map[string]Kind{
		"DXT1": ATEXDXT1, "DXT2": ATEXDXT2, "DXT3": ATEXDXT3, "DXT4": ATEXDXT4,
		"DXT5": ATEXDXT5, "DXTN": ATEXDXTN, "DXTA": ATEXDXTA, "DXTL": ATEXDXTL,
	}
	attxKinds = map[string]Kind{
		"DXT1": ATTXDXT1, "DXT2": ATTXDXT2, "DXT3": ATTXDXT3, "DXT4": ATTXDXT4,
		"DXT5": ATTXDXT5, "DXTN": ATTXDXTN, "DXTA": ATTXDXTA, "DXTL": ATTXDXTL,
	}
)

func classified(k Kind) Result {
	return Result{Status: Classified, Kind: k}
}

func needMore(n int) Result {
	return Result{Status: NeedMoreBytes, Need: n}
}

var unclassified = Result{Status: Unclassified}

// Classify inspects the first bytes of an entry. A NeedMoreBytes result is only
// returned when len(data) is below the requested length, so retrying with a
// longer prefix of the same content always asks for strictly more.
func Classify(data []byte) Result {
	if len(data) == 0 {
		return unclassified
	}

	if len(data) >= 4 {
		switch string(data[:4]) {
		case "ATEX":
			return texture(data, ATEX, atexKinds)
		case "ATTX":
			return texture(data, ATTX, attxKinds)
		case "DDS ":
			return classified(DDS)
		case "\x89PNG":
			return classified(PNG)
		case "ffna":
			if len(data) < 5 {
				return classified(FFNA)
			}
			switch data[4] {
			case 2:
				return classified(Model)
			case 3:
				return classified(Map)
			}
			return classified(FFNA)
		case "AMAT":
			return classified(Material)
		case "OggS":
			return classified(OGG)
		case "RIFF":
			if len(data) < RIFFHeaderSize {
				return needMore(RIFFHeaderSize)
			}
			if string(data[8:12]) == "WAVE" {
				return classified(WAV)
			}
			return classified(RIFF)
		}
	}

	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return classified(JPEG)
	case bytes.HasPrefix(data, []byte("ID3")):
		return classified(MP3)
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return classified(MP3)
	case bytes.HasPrefix(data, []byte("PA")):
		if r, ok := packed(data); ok {
			return r
		}
	case bytes.HasPrefix(data, []byte("MZ")):
		return executable(data)
	}

	return plainText(data)
}

func texture(data []byte, generic Kind, formats map[string]Kind) Result {
	if len(data) < 8 {
		return classified(generic)
	}
	if k, ok := formats[string(data[4:8])]; ok {
		return classified(k)
	}
	return classified(generic)
}

// packed handles the two-byte "PA" container whose sub-tag at offset 8 selects
// the precise kind. ok is false when the sub-tag is missing or not recognised.
func packed(data []byte) (Result, bool) {
	if len(data) < PackedHeaderSize {
		return Result{}, false
	}

	switch string(data[8:12]) {
	case "TEXT":
		return classified(StringTable), true
	case "AMP ":
		if len(data) < PackedAudioHeaderSize {
			return needMore(PackedAudioHeaderSize), true
		}
		switch binary.LittleEndian.Uint32(data[88:92]) {
		case 1:
			return classified(MP3), true
		case 2:
			return classified(OGG), true
		}
		return classified(AMP), true
	}

	return Result{}, false
}

func executable(data []byte) Result {
	if len(data) < dosHeaderSize {
		return needMore(dosHeaderSize)
	}

	peOffset := int(binary.LittleEndian.Uint32(data[peOffsetField:]))
	if peOffset > maxPEOffset {
		return classified(Binary)
	}

	end := peOffset + peHeaderSpan
	if len(data) < end {
		return needMore(end)
	}

	if string(data[peOffset:peOffset+4]) != "PE\x00\x00" {
		return classified(Binary)
	}

	characteristics := binary.LittleEndian.Uint16(data[end-2:])
	if characteristics&dllCharacteristic != 0 {
		return classified(DLL)
	}
	return classified(EXE)
}

// plainText classifies the whole buffer as text only when every byte is
// printable ASCII or whitespace.
func plainText(data []byte) Result {
	for _, c := range data {
		switch {
		case c >= 0x20 && c <= 0x7E:
		case c == '\t', c == '\n', c == '\r', c == '\f', c == '\v':
		default:
			return unclassified
		}
	}
	return classified(Text)
}
