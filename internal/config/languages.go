package config

import (
	"fmt"
	"strings"

	"github.com/jchantrell/datscan/internal/filetype"
)

// ParseLanguages resolves language names, case-insensitively. An empty list
// means no language filter.
func ParseLanguages(languages []string) ([]filetype.Language, error) {
	if len(languages) == 0 {
		return nil, nil
	}

	out := make([]filetype.Language, 0, len(languages))
	for _, name := range languages {
		if name == "" {
			return nil, fmt.Errorf("language name cannot be empty")
		}

		lang, ok := filetype.ParseLanguage(name)
		if !ok {
			return nil, fmt.Errorf("unsupported language '%s': supported languages are %s", name, strings.Join(filetype.LanguageNames(), ", "))
		}
		out = append(out, lang)
	}

	return out, nil
}
