package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeGzip(t *testing.T, path string, content []byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestDecompressFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "kanjidic2.xml.gz")
	dst := filepath.Join(dir, "processed", "kanjidic2.xml")
	writeGzip(t, src, []byte("<kanjidic2/>"))

	require.NoError(t, DecompressFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "<kanjidic2/>", string(got))
}

func TestDecompressFileCorruptLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.gz")
	dst := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(src, []byte("not gzip"), 0o644))

	require.Error(t, DecompressFile(src, dst))
	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}

func TestDecompressorContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.gz")
	writeGzip(t, good, []byte("ok"))

	cfg := DecompressConfig{
		InputFiles:  []string{filepath.Join(dir, "missing.gz"), good, good},
		OutputFiles: []string{filepath.Join(dir, "missing.xml"), filepath.Join(dir, "good.xml")},
	}
	d := NewDecompressor(cfg, zaptest.NewLogger(t))
	require.NoError(t, d.Process(context.Background()))

	got, err := os.ReadFile(filepath.Join(dir, "good.xml"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(got))

	_, err = os.Stat(filepath.Join(dir, "missing.xml"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "the third input has no destination and is ignored")
}

func TestDecompressorHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.gz")
	writeGzip(t, src, []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDecompressor(DecompressConfig{InputFiles: []string{src}, OutputFiles: []string{filepath.Join(dir, "a.xml")}}, nil)
	assert.ErrorIs(t, d.Process(ctx), context.Canceled)
}
