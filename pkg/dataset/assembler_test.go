package dataset

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/japaniel/kanjiprep/pkg/kanjidic"
)

func writeImage(t *testing.T, path string, fill color.Gray) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetGray(x, y, fill)
		}
	}
	img.SetGray(1, 1, color.Gray{Y: 0})

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

type fixture struct {
	dir     string
	cfg     AssemblerConfig
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(images, 0o755))

	dict := kanjidic.NewDictionary()
	dict.Set("一", kanjidic.Record{Meanings: []string{"one", "one radical"}, OnReadings: []string{"イチ", "イツ"}, KunReadings: []string{"ひと-"}})
	dict.Set("二", kanjidic.Record{Meanings: []string{"two"}})
	dict.Set("三", kanjidic.Record{Meanings: []string{"three"}})
	dict.Set("四", kanjidic.Record{Meanings: []string{"four"}})
	defs := filepath.Join(dir, "definitions.json")
	require.NoError(t, dict.Save(defs))

	writeImage(t, filepath.Join(images, "一.png"), color.Gray{Y: 255})
	writeImage(t, filepath.Join(images, "三.png"), color.Gray{Y: 255})
	// A directory with the right name is not an image.
	require.NoError(t, os.MkdirAll(filepath.Join(images, "四.png"), 0o755))

	cfg := DefaultAssemblerConfig()
	cfg.DefinitionsFile = defs
	cfg.ImagesDir = images
	cfg.OutputFile = filepath.Join(dir, "dataset", "kanji_dataset.json")
	return fixture{dir: dir, cfg: cfg}
}

func TestAssemblerJoinsByFileName(t *testing.T) {
	fx := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	a, err := NewAssembler(fx.cfg, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, a.Process(context.Background()))

	entries, err := LoadManifest(fx.cfg.OutputFile)
	require.NoError(t, err)
	require.Len(t, entries, 2, "4 dictionary entries minus 2 without an image")

	assert.Equal(t, Entry{
		Literal:     "一",
		Meanings:    []string{"one", "one radical"},
		OnReadings:  []string{"イチ", "イツ"},
		KunReadings: []string{"ひと-"},
		Text:        "one, one radical",
		ImagePath:   filepath.Join(fx.cfg.ImagesDir, "一.png"),
	}, entries[0])
	assert.Equal(t, "三", entries[1].Literal)
	for _, e := range entries {
		assert.FileExists(t, e.ImagePath)
		assert.Nil(t, e.Image)
	}

	missing := logs.FilterMessage("Images not found for some kanji").All()
	require.Len(t, missing, 1, "missing images are reported in one batch")
	assert.EqualValues(t, 2, missing[0].ContextMap()["missing"])
}

func TestAssembleMissingPreviewIsBounded(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.MissingPreview = 1
	a, err := NewAssembler(fx.cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	dict, err := kanjidic.Load(fx.cfg.DefinitionsFile)
	require.NoError(t, err)
	_, stats, err := a.Assemble(context.Background(), dict)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, []string{"二"}, stats.Missing)
}

func TestAssembleEmbedPixels(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.EmbedPixels = true
	a, err := NewAssembler(fx.cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, a.Process(context.Background()))
	entries, err := LoadManifest(fx.cfg.OutputFile)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Empty(t, entries[0].ImagePath)
	assert.Equal(t, [][]float64{{1, 1}, {1, 0}}, entries[0].Image)
}

func TestAssembleSkipsUnreadableImageWhenEmbedding(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.EmbedPixels = true
	require.NoError(t, os.WriteFile(filepath.Join(fx.cfg.ImagesDir, "二.png"), []byte("not a png"), 0o644))

	a, err := NewAssembler(fx.cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	dict, err := kanjidic.Load(fx.cfg.DefinitionsFile)
	require.NoError(t, err)

	entries, stats, err := a.Assemble(context.Background(), dict)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, stats.Skipped)
}

type stubAnnotator map[string]string

func (s stubAnnotator) Reading(literal string) string { return s[literal] }

func TestAssembleAnnotatesReadings(t *testing.T) {
	fx := newFixture(t)
	a, err := NewAssembler(fx.cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	a.Annotator = stubAnnotator{"一": "いち"}

	dict, err := kanjidic.Load(fx.cfg.DefinitionsFile)
	require.NoError(t, err)
	entries, _, err := a.Assemble(context.Background(), dict)
	require.NoError(t, err)

	assert.Equal(t, "いち", entries[0].IPAReading)
	assert.Empty(t, entries[1].IPAReading)
}

func TestAssemblerEmptyResultWritesEmptyArray(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.ImagesDir = filepath.Join(fx.dir, "no-images")
	a, err := NewAssembler(fx.cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, a.Process(context.Background()))
	data, err := os.ReadFile(fx.cfg.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestAssemblerFailsWithoutDefinitions(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.DefinitionsFile = filepath.Join(fx.dir, "missing.json")
	a, err := NewAssembler(fx.cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Error(t, a.Process(context.Background()))
	assert.NoFileExists(t, fx.cfg.OutputFile)
}

func TestNewAssemblerValidates(t *testing.T) {
	_, err := NewAssembler(AssemblerConfig{DefinitionsFile: "a", ImagesDir: "b"}, nil)
	assert.Error(t, err)

	_, err = NewAssembler(AssemblerConfig{DefinitionsFile: "a", ImagesDir: "b", OutputFile: "c", MissingPreview: -1}, nil)
	assert.Error(t, err)
}
