package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/kanjiprep/pkg/archive"
	"github.com/japaniel/kanjiprep/pkg/catalog"
	"github.com/japaniel/kanjiprep/pkg/dataset"
	"github.com/japaniel/kanjiprep/pkg/kanjidic"
	"github.com/japaniel/kanjiprep/pkg/kanjivg"
	"github.com/japaniel/kanjiprep/pkg/logging"
	"github.com/japaniel/kanjiprep/pkg/pipeline"
)

// defaultRegistry returns every step a pipeline file may name.
func defaultRegistry() *pipeline.Registry {
	r := pipeline.NewRegistry()
	archive.Register(r)
	kanjidic.Register(r)
	kanjivg.Register(r)
	dataset.Register(r)
	catalog.Register(r)
	return r
}

type rootOptions struct {
	logLevel  string
	logFormat string
	logger    *zap.Logger
}

func defaultLogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "kanjiprep",
		Short: "Prepare a Kanji glyph dataset from KANJIDIC2 and KanjiVG",
		Long: `kanjiprep runs an ordered list of preparation steps declared in a YAML
file: fetching and decompressing the corpora, parsing the dictionary,
rendering stroke-order glyphs and assembling the training manifest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(opts.logLevel, opts.logFormat, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", defaultLogLevel(), "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", logging.FormatConsole, "log format (console or json)")

	root.AddCommand(newRunCmd(opts), newValidateCmd(opts), newStepsCmd())
	return root
}

func loadExecutor(path string, logger *zap.Logger) (*pipeline.Executor, error) {
	cfg, err := pipeline.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	exec := pipeline.NewExecutor(cfg, defaultRegistry(), logger)
	if err := exec.Load(); err != nil {
		return nil, err
	}
	return exec, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load and run a pipeline file",
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := loadExecutor(configPath, opts.logger)
			if err != nil {
				return err
			}
			report, err := exec.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "executed %d step(s), skipped %d\n", len(report.Executed), len(report.Skipped))
			if report.StoppedEarly {
				fmt.Fprintf(cmd.OutOrStdout(), "stopped after %s\n", report.StoppedAfter)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "pipeline YAML file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that every step of a pipeline file resolves and constructs",
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := loadExecutor(configPath, opts.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", configPath, exec.State())
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "pipeline YAML file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the steps a pipeline file may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range defaultRegistry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
