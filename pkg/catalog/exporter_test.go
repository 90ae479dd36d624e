package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/japaniel/kanjiprep/pkg/dataset"
	"github.com/japaniel/kanjiprep/pkg/db"
	"github.com/japaniel/kanjiprep/pkg/pipeline"
)

func sampleEntries() []dataset.Entry {
	return []dataset.Entry{
		{Literal: "一", Meanings: []string{"one"}, OnReadings: []string{"イチ"}, KunReadings: []string{"ひと-"}, Text: "one", ImagePath: "images/一.png"},
		{Literal: "二", Meanings: []string{"two"}, OnReadings: []string{"ニ"}, KunReadings: []string{"ふた"}, Text: "two", ImagePath: "images/二.png"},
		{Literal: "三", Meanings: []string{"three"}, OnReadings: []string{"サン"}, KunReadings: []string{"み"}, Text: "three", ImagePath: "images/三.png"},
	}
}

func TestExporterProcessIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "dataset.json")
	require.NoError(t, dataset.SaveManifest(manifest, sampleEntries()))

	cfg := DefaultExporterConfig()
	cfg.DatasetFile = manifest
	cfg.DatabasePath = filepath.Join(dir, "db", "catalog.sqlite")
	cfg.BatchSize = 2
	e, err := NewExporter(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, e.Process(context.Background()))
	require.NoError(t, e.Process(context.Background()))

	conn, err := db.Open(cfg.DatabasePath)
	require.NoError(t, err)
	defer conn.Close()

	n, err := db.CountKanji(conn)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := db.GetKanji(conn, "二")
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, got.Meanings)
	assert.Equal(t, []string{"ニ"}, got.OnReadings)
	assert.Equal(t, []string{"ふた"}, got.KunReadings)
	assert.Equal(t, "images/二.png", got.ImagePath)
}

func TestExportCountsCommitted(t *testing.T) {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	e, err := NewExporter(ExporterConfig{DatasetFile: "x", DatabasePath: ":memory:", BatchSize: 2}, nil)
	require.NoError(t, err)
	n, err := e.Export(context.Background(), conn, sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestExportStopsOnCancelledContext(t *testing.T) {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	e, err := NewExporter(ExporterConfig{DatasetFile: "x", DatabasePath: ":memory:", BatchSize: 1}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Export(ctx, conn, sampleEntries())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExporterMissingManifest(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(ExporterConfig{
		DatasetFile:  filepath.Join(dir, "missing.json"),
		DatabasePath: filepath.Join(dir, "catalog.sqlite"),
		BatchSize:    10,
	}, nil)
	require.NoError(t, err)
	assert.Error(t, e.Process(context.Background()))
}

func TestRegisterDecodesDefaults(t *testing.T) {
	r := pipeline.NewRegistry()
	Register(r)
	factory, ok := r.Lookup("catalog", "Exporter")
	require.True(t, ok)

	p, err := pipeline.ParamsFrom(map[string]any{"dataset_file": "d.json", "database_path": "c.sqlite"})
	require.NoError(t, err)
	step, err := factory(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, step.(*Exporter).cfg.BatchSize)

	p, err = pipeline.ParamsFrom(map[string]any{"dataset_file": "d.json", "database_path": "c.sqlite", "batch": 5})
	require.NoError(t, err)
	_, err = factory(p, nil)
	assert.Error(t, err)
}

func TestNewExporterValidates(t *testing.T) {
	_, err := NewExporter(ExporterConfig{DatasetFile: "d"}, nil)
	assert.Error(t, err)
	_, err = NewExporter(ExporterConfig{DatasetFile: "d", DatabasePath: "p", BatchSize: 0}, nil)
	assert.Error(t, err)
}
