package kanjidic

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/japaniel/kanjiprep/pkg/pipeline"
)

// Reading types selected from reading elements.
const (
	ReadingOn  = "ja_on"
	ReadingKun = "ja_kun"
)

// LangEnglish selects meanings without an m_lang attribute, which
// KANJIDIC2 uses for English.
const LangEnglish = "en"

// character mirrors the parts of a KANJIDIC2 character element we read.
type character struct {
	Literal  *string   `xml:"literal"`
	Readings []reading `xml:"reading_meaning>rmgroup>reading"`
	Meanings []meaning `xml:"reading_meaning>rmgroup>meaning"`
}

type reading struct {
	Type string `xml:"r_type,attr"`
	Text string `xml:",chardata"`
}

type meaning struct {
	Lang string `xml:"m_lang,attr"`
	Text string `xml:",chardata"`
}

// Stats counts what a parse produced.
type Stats struct {
	Characters int // character elements seen
	Skipped    int // characters without a literal
}

// ParserConfig configures the Parser step.
type ParserConfig struct {
	InputFile  string `yaml:"input_file"`
	OutputFile string `yaml:"output_file"`
	// MeaningLanguages restricts meanings to these m_lang values ("en" for
	// untagged meanings). Empty keeps every meaning.
	MeaningLanguages []string `yaml:"meaning_languages"`
}

// Parser converts a KANJIDIC2 document into the dictionary JSON.
type Parser struct {
	cfg    ParserConfig
	logger *zap.Logger
}

// NewParser returns a Parser for cfg.
func NewParser(cfg ParserConfig, logger *zap.Logger) (*Parser, error) {
	if cfg.InputFile == "" || cfg.OutputFile == "" {
		return nil, errors.New("input_file and output_file are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{cfg: cfg, logger: logger}, nil
}

// Process parses the input document and writes the dictionary JSON.
// Malformed XML and I/O errors fail the step.
func (p *Parser) Process(ctx context.Context) error {
	f, err := os.Open(p.cfg.InputFile)
	if err != nil {
		p.logger.Error("Error opening KANJIDIC2 data", zap.Error(err))
		return err
	}
	defer f.Close()

	dict, stats, err := p.Parse(ctx, f)
	if err != nil {
		p.logger.Error("Error parsing KANJIDIC2 data", zap.String("file", p.cfg.InputFile), zap.Error(err))
		return fmt.Errorf("parse %s: %w", p.cfg.InputFile, err)
	}
	if err := dict.Save(p.cfg.OutputFile); err != nil {
		return fmt.Errorf("save dictionary: %w", err)
	}

	p.logger.Info("KANJIDIC2 data parsed and saved",
		zap.String("output", p.cfg.OutputFile),
		zap.Int("characters", stats.Characters),
		zap.Int("entries", dict.Len()),
		zap.Int("skipped", stats.Skipped))
	return nil
}

// Parse streams character elements from r. A character without a literal
// is skipped with a warning.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Dictionary, Stats, error) {
	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity

	dict := NewDictionary()
	var stats Stats
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "character" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		var c character
		if err := dec.DecodeElement(&c, &se); err != nil {
			return nil, stats, err
		}
		stats.Characters++

		literal := ""
		if c.Literal != nil {
			literal = norm.NFC.String(strings.TrimSpace(*c.Literal))
		}
		if literal == "" {
			stats.Skipped++
			p.logger.Warn("Skipping character without literal", zap.Int("position", stats.Characters))
			continue
		}

		dict.Set(literal, p.record(c))
	}
	return dict, stats, nil
}

func (p *Parser) record(c character) Record {
	rec := Record{
		Meanings:    []string{},
		OnReadings:  []string{},
		KunReadings: []string{},
	}
	for _, m := range c.Meanings {
		if !p.wantMeaning(m.Lang) {
			continue
		}
		rec.Meanings = append(rec.Meanings, strings.TrimSpace(m.Text))
	}
	for _, r := range c.Readings {
		switch r.Type {
		case ReadingOn:
			rec.OnReadings = append(rec.OnReadings, strings.TrimSpace(r.Text))
		case ReadingKun:
			rec.KunReadings = append(rec.KunReadings, strings.TrimSpace(r.Text))
		}
	}
	return rec
}

func (p *Parser) wantMeaning(lang string) bool {
	if len(p.cfg.MeaningLanguages) == 0 {
		return true
	}
	if lang == "" {
		lang = LangEnglish
	}
	return slices.Contains(p.cfg.MeaningLanguages, lang)
}

// Register adds the kanjidic.Parser step to r.
func Register(r *pipeline.Registry) {
	r.Register("kanjidic", "Parser", func(params pipeline.Params, logger *zap.Logger) (pipeline.Step, error) {
		var cfg ParserConfig
		if err := params.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewParser(cfg, logger)
	})
}
