package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/kanjiprep/pkg/pipeline"
)

const defaultUserAgent = "kanjiprep"

// FetchConfig lists corpus archives to download. urls[i] is saved to
// output_files[i].
type FetchConfig struct {
	URLs        []string      `yaml:"urls"`
	OutputFiles []string      `yaml:"output_files"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
}

// DefaultFetchConfig returns the fetcher defaults.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{Timeout: 60 * time.Second, UserAgent: defaultUserAgent}
}

// Fetcher downloads raw corpora that are not already on disk.
type Fetcher struct {
	cfg    FetchConfig
	client *http.Client
	logger *zap.Logger
}

// NewFetcher returns a Fetcher for cfg.
func NewFetcher(cfg FetchConfig, logger *zap.Logger) (*Fetcher, error) {
	if len(cfg.URLs) != len(cfg.OutputFiles) {
		return nil, fmt.Errorf("urls (%d) and output_files (%d) must have the same length", len(cfg.URLs), len(cfg.OutputFiles))
	}
	if len(cfg.URLs) == 0 {
		return nil, errors.New("urls is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Process downloads every missing archive. Any failed download fails the
// step, since later steps cannot run without the corpus.
func (f *Fetcher) Process(ctx context.Context) error {
	for i, url := range f.cfg.URLs {
		dst := f.cfg.OutputFiles[i]
		fetched, err := f.Ensure(ctx, url, dst)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", url, err)
		}
		if fetched {
			f.logger.Info("Downloaded archive", zap.String("url", url), zap.String("dst", dst))
		} else {
			f.logger.Info("Archive already present", zap.String("dst", dst))
		}
	}
	return nil
}

// Ensure downloads url to path unless path already exists. It reports
// whether a download happened.
func (f *Fetcher) Ensure(ctx context.Context, url, path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("download failed: %s", resp.Status)
	}

	if err := writeAtomic(path, resp.Body); err != nil {
		return false, err
	}
	return true, nil
}

func writeAtomic(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func registerFetcher(r *pipeline.Registry) {
	r.Register("archive", "Fetcher", func(p pipeline.Params, logger *zap.Logger) (pipeline.Step, error) {
		cfg := DefaultFetchConfig()
		if err := p.Decode(&cfg); err != nil {
			return nil, err
		}
		return NewFetcher(cfg, logger)
	})
}

// Register adds the archive steps to r.
func Register(r *pipeline.Registry) {
	registerFetcher(r)
	registerDecompressor(r)
}
