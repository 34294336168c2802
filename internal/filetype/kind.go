// Package filetype classifies archive entries from the first bytes of their content.
package filetype

// Kind is the sniffed content classification of an entry
type Kind uint8

const (
	Unknown Kind = iota

	ATEX
	ATEXDXT1
	ATEXDXT2
	ATEXDXT3
	ATEXDXT4
	ATEXDXT5
	ATEXDXTN
	ATEXDXTA
	ATEXDXTL
	ATTX
	ATTXDXT1
	ATTXDXT2
	ATTXDXT3
	ATTXDXT4
	ATTXDXT5
	ATTXDXTN
	ATTXDXTA
	ATTXDXTL
	DDS
	PNG
	JPEG

	FFNA
	Model
	Map
	Material

	WAV
	RIFF
	MP3
	OGG
	AMP

	StringTable
	Text

	EXE
	DLL
	Binary

	Font

	kindCount
)

var kindNames = [kindCount]string{
	Unknown:     "Unknown",
	ATEX:        "ATEX",
	ATEXDXT1:    "ATEXDXT1",
	ATEXDXT2:    "ATEXDXT2",
	ATEXDXT3:    "ATEXDXT3",
	ATEXDXT4:    "ATEXDXT4",
	ATEXDXT5:    "ATEXDXT5",
	ATEXDXTN:    "ATEXDXTN",
	ATEXDXTA:    "ATEXDXTA",
	ATEXDXTL:    "ATEXDXTL",
	ATTX:        "ATTX",
	ATTXDXT1:    "ATTXDXT1",
	ATTXDXT2:    "ATTXDXT2",
	ATTXDXT3:    "ATTXDXT3",
	ATTXDXT4:    "ATTXDXT4",
	ATTXDXT5:    "ATTXDXT5",
	ATTXDXTN:    "ATTXDXTN",
	ATTXDXTA:    "ATTXDXTA",
	ATTXDXTL:    "ATTXDXTL",
	DDS:         "DDS",
	PNG:         "PNG",
	JPEG:        "JPEG",
	FFNA:        "FFNA",
	Model:       "Model",
	Map:         "Map",
	Material:    "Material",
	WAV:         "WAV",
	RIFF:        "RIFF",
	MP3:         "MP3",
	OGG:         "OGG",
	AMP:         "AMP",
	StringTable: "StringTable",
	Text:        "Text",
	EXE:         "EXE",
	DLL:         "DLL",
	Binary:      "Binary",
	Font:        "Font",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "Unknown"
	}
	return kindNames[k]
}

// ParseKind resolves a kind from its name as returned by String
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return Unknown, false
}

// Family groups kinds for categorization and export
type Family uint8

const (
	FamilyOther Family = iota
	FamilyTexture
	FamilyModel
	FamilyAudio
	FamilyText
	FamilyBinary
	FamilyFont
)

// Family returns the broad family of k
func (k Kind) Family() Family {
	switch {
	case k >= ATEX && k <= JPEG:
		return FamilyTexture
	case k >= FFNA && k <= Material:
		return FamilyModel
	case k >= WAV && k <= AMP:
		return FamilyAudio
	case k == StringTable || k == Text:
		return FamilyText
	case k >= EXE && k <= Binary:
		return FamilyBinary
	case k == Font:
		return FamilyFont
	}
	return FamilyOther
}

// IsGenericTexture reports whether k is an ATEX/ATTX texture, which carries its
// dimensions at a fixed offset.
func (k Kind) IsGenericTexture() bool {
	return k >= ATEX && k <= ATTXDXTL
}

// Extension returns the file extension used when exporting raw entries of kind k
func (k Kind) Extension() string {
	switch {
	case k >= ATEX && k <= ATEXDXTL:
		return ".atex"
	case k >= ATTX && k <= ATTXDXTL:
		return ".attx"
	}

	switch k {
	case DDS:
		return ".dds"
	case PNG:
		return ".png"
	case JPEG:
		return ".jpg"
	case FFNA, Model, Map:
		return ".ffna"
	case Material:
		return ".amat"
	case WAV:
		return ".wav"
	case RIFF:
		return ".riff"
	case MP3:
		return ".mp3"
	case OGG:
		return ".ogg"
	case AMP:
		return ".amp"
	case StringTable:
		return ".strings"
	case Text:
		return ".txt"
	case EXE:
		return ".exe"
	case DLL:
		return ".dll"
	case Font:
		return ".fnt"
	}
	return ".bin"
}
