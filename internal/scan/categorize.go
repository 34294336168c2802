package scan

import (
	"encoding/binary"
	"fmt"

	"github.com/jchantrell/datscan/internal/filetype"
)

const (
	// modelBucketSize groups models by base id so no category grows unbounded
	modelBucketSize = 10000

	CategoryTextures  = "Textures"
	CategorySounds    = "Sounds"
	CategoryModels    = "Models"
	CategoryMaps      = "Maps"
	CategoryMaterials = "Materials"
	CategoryText      = "Text"
	CategoryBinaries  = "Binaries"
	CategoryFonts     = "Fonts"
	CategoryUnknown   = "Unknown"
)

// fontSlots are the slots of the bitmap font assets. Their content carries no
// magic, so they are recognised by position.
var fontSlots = map[int]struct{}{
	17409: {}, 17410: {}, 17411: {}, 17412: {},
	17413: {}, 17414: {}, 17415: {}, 17416: {},
	21736: {}, 21737: {}, 21738: {}, 21739: {},
	134895: {}, 134896: {},
}

// IsFontSlot reports whether slot belongs to the bitmap font family
func IsFontSlot(slot int) bool {
	_, ok := fontSlots[slot]
	return ok
}

// slotInfo is what categorization knows about one slot
type slotInfo struct {
	slot   int
	kind   filetype.Kind
	baseID uint32
	prefix []byte
	// full reads the whole entry. Only string tables use it.
	full func() []byte
}

// categorize maps a slot to the kind it is indexed as and its category path
func categorize(s slotInfo) (filetype.Kind, []string) {
	k := s.kind

	switch k.Family() {
	case filetype.FamilyTexture:
		if k.IsGenericTexture() && len(s.prefix) >= filetype.TextureHeaderSize {
			w := binary.LittleEndian.Uint16(s.prefix[8:])
			h := binary.LittleEndian.Uint16(s.prefix[10:])
			return k, []string{CategoryTextures, k.String(), fmt.Sprintf("%dx%d", w, h)}
		}
		return k, []string{CategoryTextures, k.String()}

	case filetype.FamilyAudio:
		return k, []string{CategorySounds, k.String()}

	case filetype.FamilyModel:
		switch k {
		case filetype.Model:
			return k, []string{CategoryModels, modelBucket(s.baseID)}
		case filetype.Map:
			return k, []string{CategoryMaps}
		case filetype.Material:
			return k, []string{CategoryMaterials}
		}
		return k, []string{CategoryModels, k.String()}

	case filetype.FamilyText:
		if k == filetype.StringTable {
			return k, []string{CategoryText, "Strings", stringTableLanguage(s)}
		}
		return k, []string{CategoryText, "Plain"}

	case filetype.FamilyBinary:
		return k, []string{CategoryBinaries, k.String()}
	}

	if IsFontSlot(s.slot) {
		return filetype.Font, []string{CategoryFonts}
	}
	return filetype.Unknown, []string{CategoryUnknown}
}

func modelBucket(baseID uint32) string {
	if baseID == 0 {
		return "Unmatched"
	}
	lo := baseID / modelBucketSize * modelBucketSize
	return fmt.Sprintf("%d-%d", lo, lo+modelBucketSize-1)
}

func stringTableLanguage(s slotInfo) string {
	if s.full == nil {
		return CategoryUnknown
	}
	lang, ok := filetype.StringTableLanguage(s.full())
	if !ok {
		return CategoryUnknown
	}
	return lang.String()
}
