package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/datscan/internal/catalog"
	"github.com/jchantrell/datscan/internal/filetype"
)

type mapLoader map[int][]byte

func (m mapLoader) Read(slot int) []byte {
	return m[slot]
}

func exportFixture() (*catalog.Index, mapLoader) {
	idx := catalog.New()
	png := idx.FindOrAddPath("Textures", "PNG")
	en := idx.FindOrAddPath("Text", "Strings", "English")
	fr := idx.FindOrAddPath("Text", "Strings", "French")
	plain := idx.FindOrAddPath("Text", "Plain")

	idx.AddEntry().Slot(3).Kind(filetype.PNG).Name("100").Category(png).Commit()
	idx.AddEntry().Slot(4).Kind(filetype.StringTable).Name("101").Category(en).Commit()
	idx.AddEntry().Slot(5).Kind(filetype.StringTable).Name("102").Category(fr).Commit()
	idx.AddEntry().Slot(6).Kind(filetype.Text).Name("unmatched-6").Category(plain).Commit()
	idx.AddEntry().Slot(7).Kind(filetype.PNG).Name("103").Category(png).Commit()

	loader := mapLoader{
		3: []byte("png-3"),
		4: []byte("en-4"),
		5: []byte("fr-5"),
		6: []byte("text-6"),
		// slot 7 is unreadable
		8: []byte("raw-8"),
	}
	return idx, loader
}

func TestExportCategory(t *testing.T) {
	t.Parallel()

	idx, loader := exportFixture()
	out := t.TempDir()
	e := NewExporter(loader, idx, out)

	textures, ok := idx.FindPath("Textures")
	require.True(t, ok)

	var calls []int
	n, err := e.ExportCategory(textures, func(current, total int, description string) {
		calls = append(calls, current)
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{1, 2}, calls)

	data, err := os.ReadFile(filepath.Join(out, "Textures", "PNG", "100.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-3", string(data))

	_, err = os.Stat(filepath.Join(out, "Textures", "PNG", "103.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestExportSlots(t *testing.T) {
	t.Parallel()

	idx, loader := exportFixture()
	out := t.TempDir()
	e := NewExporter(loader, idx, out)

	n, err := e.ExportSlots([]int{6, 8}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(out, "Text", "Plain", "unmatched-6.txt"))
	require.NoError(t, err)
	assert.Equal(t, "text-6", string(data))

	data, err = os.ReadFile(filepath.Join(out, "slot-8.bin"))
	require.NoError(t, err)
	assert.Equal(t, "raw-8", string(data))
}

func TestLanguageFilter(t *testing.T) {
	t.Parallel()

	idx, loader := exportFixture()
	out := t.TempDir()
	e := NewExporter(loader, idx, out)
	e.SetFilter(LanguageFilter(idx, []filetype.Language{filetype.LanguageFrench}))

	n, err := e.ExportCategory(catalog.Root, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = os.Stat(filepath.Join(out, "Text", "Strings", "French", "102.strings"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "Text", "Strings", "English"))
	assert.True(t, os.IsNotExist(err))

	assert.Nil(t, LanguageFilter(idx, nil))
}

func TestExportNothing(t *testing.T) {
	t.Parallel()

	idx, loader := exportFixture()
	out := filepath.Join(t.TempDir(), "never-created")
	e := NewExporter(loader, idx, out)

	n, err := e.ExportSlots(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestOutputPathSanitizes(t *testing.T) {
	t.Parallel()

	idx := catalog.New()
	cat := idx.FindOrAddPath("..", "a/b")
	e := NewExporter(mapLoader{}, idx, "/out")

	got := e.OutputPath(catalog.Entry{Slot: 9, Kind: filetype.Unknown, Name: "x:y", Category: cat})
	assert.Equal(t, filepath.Join("/out", "_", "a@b", "x_y.bin"), got)

	got = e.OutputPath(catalog.Entry{Slot: 9, Kind: filetype.DLL})
	assert.Equal(t, filepath.Join("/out", "slot-9.dll"), got)
}
