package filetype

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Language is the language tag stored with each string table record
type Language uint16

// Supported string table languages
const (
	LanguageEnglish            Language = 0
	LanguageKorean             Language = 1
	LanguageFrench             Language = 2
	LanguageGerman             Language = 3
	LanguageItalian            Language = 4
	LanguageSpanish            Language = 5
	LanguageTraditionalChinese Language = 6
	LanguageJapanese           Language = 8
	LanguagePolish             Language = 9
	LanguageRussian            Language = 10
	LanguageBorkBorkBork       Language = 17
)

var languageNames = map[Language]string{
	LanguageEnglish:            "English",
	LanguageKorean:             "Korean",
	LanguageFrench:             "French",
	LanguageGerman:             "German",
	LanguageItalian:            "Italian",
	LanguageSpanish:            "Spanish",
	LanguageTraditionalChinese: "Traditional Chinese",
	LanguageJapanese:           "Japanese",
	LanguagePolish:             "Polish",
	LanguageRussian:            "Russian",
	LanguageBorkBorkBork:       "Borkborkbork",
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Language%d", uint16(l))
}

// ParseLanguage resolves a language from its name, ignoring case
func ParseLanguage(name string) (Language, bool) {
	for l, n := range languageNames {
		if strings.EqualFold(n, name) {
			return l, true
		}
	}
	return 0, false
}

// LanguageNames returns the names of every supported language
func LanguageNames() []string {
	names := make([]string, 0, len(languageNames))
	for l := Language(0); l <= LanguageBorkBorkBork; l++ {
		if name, ok := languageNames[l]; ok {
			names = append(names, name)
		}
	}
	return names
}

// StringTableLanguage reads the language tag of the final record, stored in the
// last two bytes of a complete string table.
func StringTableLanguage(data []byte) (Language, bool) {
	if len(data) < PackedHeaderSize+2 {
		return 0, false
	}
	return Language(binary.LittleEndian.Uint16(data[len(data)-2:])), true
}
