package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jchantrell/datscan/internal/codec"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// validateCodec accepts "auto" or the name of a built-in codec
func validateCodec(name string) error {
	if name == codec.Auto {
		return nil
	}
	if _, ok := codec.Lookup(name); !ok {
		return fmt.Errorf("unknown codec '%s': supported codecs are %s, %s", name, codec.Auto, strings.Join(codec.Names(), ", "))
	}
	return nil
}

func validateLogLevel(level string) error {
	if !slices.Contains(logLevels, strings.ToLower(level)) {
		return fmt.Errorf("unknown log level '%s': supported levels are %s", level, strings.Join(logLevels, ", "))
	}
	return nil
}

func validateLogFormat(format string) error {
	if !slices.Contains(logFormats, strings.ToLower(format)) {
		return fmt.Errorf("unknown log format '%s': supported formats are %s", format, strings.Join(logFormats, ", "))
	}
	return nil
}
