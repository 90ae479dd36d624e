// Package dataset joins the parsed dictionary with the rendered glyph
// images into the training manifest.
//
// The join is by file name: a literal takes part in the manifest when
// "{images_dir}/{literal}.png" exists. The converter's own index is not
// consulted, so any image directory following the convention will do.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/kanjiprep/pkg/kanjidic"
	"github.com/japaniel/kanjiprep/pkg/pipeline"
	"github.com/japaniel/kanjiprep/pkg/readings"
)

// Entry is one training example.
type Entry struct {
	Literal     string   `json:"literal"`
	Meanings    []string `json:"meanings"`
	OnReadings  []string `json:"on_readings"`
	KunReadings []string `json:"kun_readings"`
	// Text is the caption the trainer conditions on.
	Text       string      `json:"text"`
	ImagePath  string      `json:"image_path,omitempty"`
	Image      [][]float64 `json:"image,omitempty"`
	IPAReading string      `json:"ipa_reading,omitempty"`
}

// Stats counts the outcome of an assembly.
type Stats struct {
	Entries int
	Skipped int
	// Missing holds up to missing_preview literals that had no image.
	Missing []string
}

// AssemblerConfig configures the Assembler step.
type AssemblerConfig struct {
	DefinitionsFile string `yaml:"definitions_file"`
	ImagesDir       string `yaml:"images_dir"`
	OutputFile      string `yaml:"output_file"`
	// EmbedPixels stores the normalized grayscale image in place of its
	// path.
	EmbedPixels bool `yaml:"embed_pixels"`
	// AnnotateReadings adds the IPA dictionary reading of each literal.
	AnnotateReadings bool `yaml:"annotate_readings"`
	MissingPreview   int  `yaml:"missing_preview"`
}

// DefaultAssemblerConfig returns the assembler defaults.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{MissingPreview: 10}
}

// ReadingAnnotator returns a standalone reading for a literal, or "".
type ReadingAnnotator interface {
	Reading(literal string) string
}

// Assembler is the dataset.Assembler step.
type Assembler struct {
	cfg    AssemblerConfig
	logger *zap.Logger
	// Annotator is set when annotate_readings is on.
	Annotator ReadingAnnotator
}

// NewAssembler returns an Assembler for cfg.
func NewAssembler(cfg AssemblerConfig, logger *zap.Logger) (*Assembler, error) {
	if cfg.DefinitionsFile == "" || cfg.ImagesDir == "" || cfg.OutputFile == "" {
		return nil, errors.New("definitions_file, images_dir and output_file are required")
	}
	if cfg.MissingPreview < 0 {
		return nil, fmt.Errorf("missing_preview must not be negative, got %d", cfg.MissingPreview)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Assembler{cfg: cfg, logger: logger}
	if cfg.AnnotateReadings {
		ann, err := readings.NewAnnotator()
		if err != nil {
			return nil, fmt.Errorf("create reading annotator: %w", err)
		}
		a.Annotator = ann
	}
	return a, nil
}

// Process loads the dictionary, assembles the manifest and writes it.
func (a *Assembler) Process(ctx context.Context) error {
	a.logger.Info("Starting dataset build process", zap.String("definitions", a.cfg.DefinitionsFile))

	dict, err := kanjidic.Load(a.cfg.DefinitionsFile)
	if err != nil {
		a.logger.Error("Failed to build dataset", zap.Error(err))
		return err
	}

	entries, stats, err := a.Assemble(ctx, dict)
	if err != nil {
		a.logger.Error("Failed to build dataset", zap.Error(err))
		return err
	}
	if err := SaveManifest(a.cfg.OutputFile, entries); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	if stats.Skipped > 0 {
		a.logger.Warn("Images not found for some kanji",
			zap.Int("missing", stats.Skipped),
			zap.Strings("preview", stats.Missing))
	}
	a.logger.Info("Dataset build complete",
		zap.Int("entries", stats.Entries),
		zap.Int("skipped", stats.Skipped),
		zap.String("output", a.cfg.OutputFile))
	return nil
}

// Assemble builds one entry per dictionary literal whose image exists, in
// dictionary order.
func (a *Assembler) Assemble(ctx context.Context, dict *kanjidic.Dictionary) ([]Entry, Stats, error) {
	entries := []Entry{}
	var stats Stats
	for _, literal := range dict.Literals() {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		rec, _ := dict.Get(literal)
		imagePath := filepath.Join(a.cfg.ImagesDir, literal+".png")

		found, err := isFile(imagePath)
		if err != nil {
			return nil, stats, err
		}
		if !found {
			a.skip(&stats, literal)
			continue
		}

		entry := Entry{
			Literal:     literal,
			Meanings:    rec.Meanings,
			OnReadings:  rec.OnReadings,
			KunReadings: rec.KunReadings,
			Text:        strings.Join(rec.Meanings, ", "),
		}
		if a.cfg.EmbedPixels {
			pixels, err := LoadPixels(imagePath)
			if err != nil {
				a.logger.Warn("Unreadable image", zap.String("literal", literal), zap.Error(err))
				a.skip(&stats, literal)
				continue
			}
			entry.Image = pixels
		} else {
			entry.ImagePath = imagePath
		}
		if a.Annotator != nil {
			entry.IPAReading = a.Annotator.Reading(literal)
		}
		entries = append(entries, entry)
		stats.Entries++
	}
	return entries, stats, nil
}

func (a *Assembler) skip(stats *Stats, literal string) {
	stats.Skipped++
	if len(stats.Missing) < a.cfg.MissingPreview {
		stats.Missing = append(stats.Missing, literal)
	}
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// SaveManifest writes entries as an indented JSON array.
func SaveManifest(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadManifest reads a manifest written by SaveManifest.
func LoadManifest(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return entries, nil
}

// Register adds the dataset.Assembler step to r.
func Register(r *pipeline.Registry) {
	r.Register("dataset", "Assembler", func(p pipeline.Params, logger *zap.Logger) (pipeline.Step, error) {
		cfg := DefaultAssemblerConfig()
		if err := p.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewAssembler(cfg, logger)
	})
}
