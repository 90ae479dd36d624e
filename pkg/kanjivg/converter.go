// Package kanjivg turns the KanjiVG stroke-order corpus into one rewritten
// SVG document and one PNG raster per character.
package kanjivg

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/japaniel/kanjiprep/pkg/pipeline"
)

// GlyphAsset records the files produced for one KanjiVG element.
type GlyphAsset struct {
	Literal    string `json:"literal"`
	ImagePath  string `json:"image_path"`
	VectorPath string `json:"vector_path"`
}

// Index maps KanjiVG element ids to their assets.
type Index map[string]GlyphAsset

// Stats counts the outcome of a conversion.
type Stats struct {
	Scanned   int // kanji elements read
	Processed int // elements with a PNG and an index entry
	Skipped   int // elements without a literal or strokes
	Failed    int // elements whose rasterization failed
}

// ConverterConfig configures the Converter step.
type ConverterConfig struct {
	InputFile      string `yaml:"input_file"`
	OutputFile     string `yaml:"output_file"`
	ImageOutputDir string `yaml:"image_output_dir"`
	SVGOutputDir   string `yaml:"svg_output_dir"`
	// Limit caps the number of processed characters; 0 means no cap.
	Limit       int     `yaml:"limit"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	StrokeWidth float64 `yaml:"stroke_width"`
}

// DefaultConverterConfig returns the converter defaults.
func DefaultConverterConfig() ConverterConfig {
	return ConverterConfig{Width: 128, Height: 128}
}

// Validate checks required paths and dimensions.
func (c ConverterConfig) Validate() error {
	var errs []error
	if c.InputFile == "" || c.OutputFile == "" {
		errs = append(errs, errors.New("input_file and output_file are required"))
	}
	if c.ImageOutputDir == "" || c.SVGOutputDir == "" {
		errs = append(errs, errors.New("image_output_dir and svg_output_dir are required"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("width and height must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit must not be negative, got %d", c.Limit))
	}
	return errors.Join(errs...)
}

// Converter is the kanjivg.Converter step.
type Converter struct {
	cfg    ConverterConfig
	logger *zap.Logger
	// Rasterizer renders the rewritten documents; tests substitute it.
	Rasterizer Rasterizer
}

// NewConverter returns a Converter for cfg.
func NewConverter(cfg ConverterConfig, logger *zap.Logger) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{cfg: cfg, logger: logger, Rasterizer: SVGRasterizer{}}, nil
}

// Process converts the input corpus and writes the index document.
func (c *Converter) Process(ctx context.Context) error {
	f, err := os.Open(c.cfg.InputFile)
	if err != nil {
		c.logger.Error("Failed to open KanjiVG file", zap.String("file", c.cfg.InputFile), zap.Error(err))
		return err
	}
	defer f.Close()

	index, stats, err := c.Convert(ctx, f)
	if err != nil {
		c.logger.Error("Failed to parse KanjiVG file", zap.String("file", c.cfg.InputFile), zap.Error(err))
		return fmt.Errorf("convert %s: %w", c.cfg.InputFile, err)
	}
	if err := saveIndex(c.cfg.OutputFile, index); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	c.logger.Info("Successfully processed kanji characters",
		zap.Int("scanned", stats.Scanned),
		zap.Int("processed", stats.Processed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.String("output", c.cfg.OutputFile))
	return nil
}

// Convert streams kanji elements from r, writing an SVG and a PNG for
// each drawable one, until the configured limit is reached.
func (c *Converter) Convert(ctx context.Context, r io.Reader) (Index, Stats, error) {
	if err := os.MkdirAll(c.cfg.SVGOutputDir, 0o755); err != nil {
		return nil, Stats{}, err
	}
	if err := os.MkdirAll(c.cfg.ImageOutputDir, 0o755); err != nil {
		return nil, Stats{}, err
	}

	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity

	index := make(Index)
	var stats Stats
	for c.cfg.Limit == 0 || stats.Processed < c.cfg.Limit {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "kanji" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		var el Node
		if err := dec.DecodeElement(&el, &se); err != nil {
			return nil, stats, err
		}
		stats.Scanned++

		id, asset, outcome, err := c.convertElement(&el)
		if err != nil {
			return nil, stats, err
		}
		switch outcome {
		case outcomeSkipped:
			stats.Skipped++
		case outcomeFailed:
			stats.Failed++
		case outcomeProcessed:
			stats.Processed++
			index[id] = asset
		}
	}
	return index, stats, nil
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// convertElement handles one kanji element. Data-quality problems and
// rasterization failures are reported as outcomes; only errors writing
// the SVG document are returned.
func (c *Converter) convertElement(el *Node) (string, GlyphAsset, outcome, error) {
	id, _ := el.Attr("", "id")

	g := el.Child("g")
	literal := ""
	if g != nil {
		if v, ok := g.Attr(Namespace, "element"); ok {
			literal = norm.NFC.String(strings.TrimSpace(v))
		}
	}
	if g == nil || literal == "" || len(g.Children) == 0 || len(g.Descendants("path")) == 0 {
		c.logger.Warn("Skipping kanji due to missing literal or strokes", zap.String("id", id))
		return id, GlyphAsset{}, outcomeSkipped, nil
	}
	if !safeFileName(literal) {
		c.logger.Warn("Skipping kanji whose literal is not a valid file name", zap.String("id", id), zap.String("literal", literal))
		return id, GlyphAsset{}, outcomeSkipped, nil
	}

	Paint(g, c.cfg.StrokeWidth)
	doc := Document(g, c.cfg.Width, c.cfg.Height)

	svgPath := filepath.Join(c.cfg.SVGOutputDir, literal+".svg")
	if err := os.WriteFile(svgPath, doc, 0o644); err != nil {
		return id, GlyphAsset{}, outcomeFailed, fmt.Errorf("write %s: %w", svgPath, err)
	}

	imgPath := filepath.Join(c.cfg.ImageOutputDir, literal+".png")
	img, err := c.Rasterizer.Rasterize(doc, c.cfg.Width, c.cfg.Height)
	if err == nil {
		err = writePNG(imgPath, img)
	}
	if err != nil {
		c.logger.Error("Error converting SVG to PNG", zap.String("id", id), zap.String("literal", literal), zap.Error(err))
		return id, GlyphAsset{}, outcomeFailed, nil
	}

	c.logger.Debug("Processed kanji", zap.String("id", id), zap.String("literal", literal), zap.String("image", imgPath))
	return id, GlyphAsset{Literal: literal, ImagePath: imgPath, VectorPath: svgPath}, outcomeProcessed, nil
}

func safeFileName(s string) bool {
	return s != "." && s != ".." && !strings.ContainsAny(s, `/\`+"\x00")
}

func saveIndex(path string, index Index) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadIndex reads an index document written by the converter.
func LoadIndex(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}
	return index, nil
}

// Register adds the kanjivg.Converter step to r.
func Register(r *pipeline.Registry) {
	r.Register("kanjivg", "Converter", func(p pipeline.Params, logger *zap.Logger) (pipeline.Step, error) {
		cfg := DefaultConverterConfig()
		if err := p.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewConverter(cfg, logger)
	})
}
