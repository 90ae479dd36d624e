// Package catalog loads an assembled dataset manifest into a SQLite
// database for inspection and querying.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/japaniel/kanjiprep/pkg/dataset"
	"github.com/japaniel/kanjiprep/pkg/db"
	"github.com/japaniel/kanjiprep/pkg/pipeline"
)

// ExporterConfig configures the Exporter step.
type ExporterConfig struct {
	DatasetFile  string `yaml:"dataset_file"`
	DatabasePath string `yaml:"database_path"`
	BatchSize    int    `yaml:"batch_size"`
}

// DefaultExporterConfig returns the exporter defaults.
func DefaultExporterConfig() ExporterConfig {
	return ExporterConfig{BatchSize: 100}
}

// Exporter is the catalog.Exporter step.
type Exporter struct {
	cfg    ExporterConfig
	logger *zap.Logger
}

// NewExporter returns an Exporter for cfg.
func NewExporter(cfg ExporterConfig, logger *zap.Logger) (*Exporter, error) {
	if cfg.DatasetFile == "" || cfg.DatabasePath == "" {
		return nil, errors.New("dataset_file and database_path are required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch_size must be positive, got %d", cfg.BatchSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{cfg: cfg, logger: logger}, nil
}

// Process reads the manifest and writes every entry to the database.
func (e *Exporter) Process(ctx context.Context) error {
	entries, err := dataset.LoadManifest(e.cfg.DatasetFile)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	conn, err := db.Open(e.cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer conn.Close()

	n, err := e.Export(ctx, conn, entries)
	if err != nil {
		return err
	}
	total, err := db.CountKanji(conn)
	if err != nil {
		return err
	}
	e.logger.Info("Catalog export complete",
		zap.Int("exported", n),
		zap.Int("catalogued", total),
		zap.String("database", e.cfg.DatabasePath))
	return nil
}

// Export writes entries in batches of batch_size and returns how many were
// committed.
func (e *Exporter) Export(ctx context.Context, conn *sql.DB, entries []dataset.Entry) (int, error) {
	batch := db.NewBatch(conn, e.cfg.BatchSize)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return batch.Committed(), err
		}
		k := kanjiFromEntry(entry)
		err := batch.Submit(ctx, func(ctx context.Context, tx *sql.Tx) error {
			_, err := db.SaveKanji(tx, k)
			return err
		})
		if err != nil {
			return batch.Committed(), err
		}
		e.logger.Debug("Queued kanji", zap.String("literal", k.Literal))
	}
	if err := batch.Close(ctx); err != nil {
		return batch.Committed(), err
	}
	return batch.Committed(), nil
}

func kanjiFromEntry(entry dataset.Entry) db.Kanji {
	return db.Kanji{
		Literal:     entry.Literal,
		ImagePath:   entry.ImagePath,
		Text:        entry.Text,
		IPAReading:  entry.IPAReading,
		Meanings:    entry.Meanings,
		OnReadings:  entry.OnReadings,
		KunReadings: entry.KunReadings,
	}
}

// Register adds the catalog.Exporter step to r.
func Register(r *pipeline.Registry) {
	r.Register("catalog", "Exporter", func(p pipeline.Params, logger *zap.Logger) (pipeline.Step, error) {
		cfg := DefaultExporterConfig()
		if err := p.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewExporter(cfg, logger)
	})
}
