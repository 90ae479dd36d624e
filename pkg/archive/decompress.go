// Package archive provides the corpus acquisition steps: downloading the
// raw gzip archives and decompressing them into working XML files.
package archive

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/japaniel/kanjiprep/pkg/pipeline"
)

// DecompressConfig lists compressed sources and their destinations.
// input_files[i] is decompressed to output_files[i].
type DecompressConfig struct {
	InputFiles  []string `yaml:"input_files"`
	OutputFiles []string `yaml:"output_files"`
}

// Decompressor gunzips each configured pair independently.
type Decompressor struct {
	cfg    DecompressConfig
	logger *zap.Logger
}

// NewDecompressor returns a Decompressor for cfg.
func NewDecompressor(cfg DecompressConfig, logger *zap.Logger) *Decompressor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decompressor{cfg: cfg, logger: logger}
}

// Process decompresses every pair. A failing pair is logged and does not
// stop the others; only context cancellation is returned as an error.
func (d *Decompressor) Process(ctx context.Context) error {
	n := min(len(d.cfg.InputFiles), len(d.cfg.OutputFiles))
	if len(d.cfg.InputFiles) != len(d.cfg.OutputFiles) {
		d.logger.Warn("Input and output file lists differ in length; extra entries are ignored",
			zap.Int("inputs", len(d.cfg.InputFiles)), zap.Int("outputs", len(d.cfg.OutputFiles)))
	}

	var ok, failed int
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, dst := d.cfg.InputFiles[i], d.cfg.OutputFiles[i]
		if err := DecompressFile(src, dst); err != nil {
			failed++
			d.logger.Error("Failed to decompress", zap.String("src", src), zap.Error(err))
			continue
		}
		ok++
		d.logger.Info("Decompressed", zap.String("src", src), zap.String("dst", dst))
	}
	d.logger.Info("Decompression finished", zap.Int("ok", ok), zap.Int("failed", failed))
	return nil
}

// DecompressFile gunzips src into dst. The output is staged next to dst and
// renamed into place, so dst is never left truncated.
func DecompressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	return writeAtomic(dst, gz)
}

func registerDecompressor(r *pipeline.Registry) {
	r.Register("archive", "Decompressor", func(p pipeline.Params, logger *zap.Logger) (pipeline.Step, error) {
		var cfg DecompressConfig
		if err := p.Decode(&cfg); err != nil {
			return nil, err
		}
		if len(cfg.InputFiles) == 0 {
			return nil, errors.New("input_files is required")
		}
		return NewDecompressor(cfg, logger), nil
	})
}
