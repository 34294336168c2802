package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/datscan/internal/codec"
	"github.com/jchantrell/datscan/internal/filetype"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "datscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Codec)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, codec.DefaultMaxRawSize, cfg.MaxEntrySize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Archive)
	assert.Empty(t, cfg.DataDir)
	assert.Empty(t, cfg.ExportLanguages())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
archive: /games/gw/Gw.dat
data_dir: /var/lib/datscan
codec: zstd
max_entry_size: 1048576
batch_size: 100
log_level: debug
log_format: json
languages:
  - french
  - Japanese
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/games/gw/Gw.dat", cfg.Archive)
	assert.Equal(t, "/var/lib/datscan", cfg.DataDir)
	assert.Equal(t, "zstd", cfg.Codec)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1<<20, cfg.MaxEntrySize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []filetype.Language{filetype.LanguageFrench, filetype.LanguageJapanese}, cfg.ExportLanguages())
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("DATSCAN_CODEC", "lz4")
	t.Setenv("DATSCAN_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "codec: zstd\n"))
	require.NoError(t, err)
	assert.Equal(t, "lz4", cfg.Codec)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"codec", "codec: brotli\n", "unknown codec 'brotli'"},
		{"log level", "log_level: loud\n", "unknown log level 'loud'"},
		{"log format", "log_format: xml\n", "unknown log format 'xml'"},
		{"batch size", "batch_size: 0\n", "invalid batch size"},
		{"max entry size", "max_entry_size: -1\n", "invalid max entry size"},
		{"language", "languages: [Klingon]\n", "unsupported language 'Klingon'"},
		{"empty language", "languages: ['']\n", "language name cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateAcceptsEveryCodec(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"auto", "oodle", "zstd", "zlib", "lz4"} {
		cfg := Config{Codec: name, MaxEntrySize: 1, BatchSize: 1, LogLevel: "INFO", LogFormat: "text"}
		assert.NoError(t, cfg.Validate(), name)
	}
}

func TestParseLanguages(t *testing.T) {
	t.Parallel()

	langs, err := ParseLanguages(nil)
	require.NoError(t, err)
	assert.Nil(t, langs)

	langs, err = ParseLanguages([]string{"english", "Traditional Chinese"})
	require.NoError(t, err)
	assert.Equal(t, []filetype.Language{filetype.LanguageEnglish, filetype.LanguageTraditionalChinese}, langs)
}
