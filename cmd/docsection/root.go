package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/internal/config"
	"github.com/benjaminschreck/go-docsection/internal/logging"
	"github.com/benjaminschreck/go-docsection/pkg/section"
)

// rootOpts holds the persistent flags shared by every subcommand.
type rootOpts struct {
	configFile string
	logLevel   string
	logFormat  string
	presetDir  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "docsection",
		Short: "Rewrite the skills section of DOCX documents",
		Long: `docsection locates a section of a Word document between two text
anchors, replaces its content with a dotted separator and one styled bullet
per item, and saves the document with every other part untouched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (json, console)")
	flags.StringVar(&opts.presetDir, "preset-dir", "", "directory of YAML style presets")

	cmd.AddCommand(
		newServeCmd(opts),
		newRewriteCmd(opts),
		newBatchCmd(opts),
		newPresetsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig loads the configuration file (if any), applies the environment and
// then the persistent flags.
func (o *rootOpts) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configFile != "" {
		loaded, err := config.LoadFile(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnvironment(os.LookupEnv)

	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.presetDir != "" {
		cfg.PresetDir = o.presetDir
	}
	return cfg, nil
}

func (o *rootOpts) logger(cfg *config.Config) (zerolog.Logger, error) {
	logger, err := logging.FromConfig(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return zerolog.Nop(), errors.Errorf("configuring logging: %w", err)
	}
	return logger, nil
}

// registry returns the built-in presets plus those of the preset directory.
func (o *rootOpts) registry(cfg *config.Config, logger zerolog.Logger) (*section.Registry, error) {
	if cfg.PresetDir == "" {
		return section.NewRegistry(), nil
	}
	registry, err := section.NewRegistryWithDirectory(cfg.PresetDir)
	if err != nil {
		return nil, errors.Errorf("loading presets: %w", err)
	}
	registry.SetLogger(logger)
	return registry, nil
}
