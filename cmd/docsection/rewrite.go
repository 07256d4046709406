package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/internal/config"
	"github.com/benjaminschreck/go-docsection/pkg/section"
)

// sectionFlags are the flags shared by rewrite and batch.
type sectionFlags struct {
	items     []string
	itemsFile string
	preset    string
	start     string
	end       string
}

func (f *sectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.items, "item", nil, "bullet item (repeatable, kept verbatim)")
	cmd.Flags().StringVar(&f.itemsFile, "items-file", "", "file with one item per line")
	cmd.Flags().StringVar(&f.preset, "preset", "", "style preset name")
	cmd.Flags().StringVar(&f.start, "start", "", "start anchor text")
	cmd.Flags().StringVar(&f.end, "end", "", "end anchor text; empty with --end= runs to the end of the document")
}

// apply copies flag overrides into cfg.
func (f *sectionFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.preset != "" {
		cfg.Preset = f.preset
	}
	if f.start != "" {
		cfg.StartMarker = f.start
	}
	if cmd.Flags().Changed("end") {
		cfg.EndMarker = f.end
	}
}

// loadItems returns the --item values followed by the lines of --items-file.
func (f *sectionFlags) loadItems() ([]string, error) {
	items := append([]string(nil), f.items...)
	if f.itemsFile == "" {
		return items, nil
	}

	var r io.Reader
	if f.itemsFile == "-" {
		r = os.Stdin
	} else {
		file, err := os.Open(f.itemsFile)
		if err != nil {
			return nil, errors.Errorf("opening items file: %w", err)
		}
		defer file.Close()
		r = file
	}

	fileItems, err := readItems(r)
	if err != nil {
		return nil, errors.Errorf("reading items file: %w", err)
	}
	return append(items, fileItems...), nil
}

// readItems returns one item per non-blank line. Lines are otherwise kept
// verbatim apart from the line ending.
func readItems(r io.Reader) ([]string, error) {
	var items []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		items = append(items, line)
	}
	return items, scanner.Err()
}

// newRewriter builds a rewriter from the effective configuration.
func (o *rootOpts) newRewriter(cfg *config.Config, logger zerolog.Logger) (*section.Rewriter, error) {
	registry, err := o.registry(cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, err := registry.Lookup(cfg.Preset); err != nil {
		return nil, err
	}
	return section.NewRewriter(
		section.WithLogger(logger),
		section.WithPresets(registry),
		section.WithPreset(cfg.Preset),
		section.WithMarkers(cfg.StartMarker, cfg.EndMarker),
	), nil
}

func newRewriteCmd(opts *rootOpts) *cobra.Command {
	var (
		flags  sectionFlags
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite the section of one document",
		Example: `  docsection rewrite -i cv.docx -o cv-new.docx --item SQL --item Python
  docsection rewrite -i cv.docx -o cv-new.docx --items-file skills.txt --preset corporate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)

			items, err := flags.loadItems()
			if err != nil {
				return err
			}
			logger, err := opts.logger(cfg)
			if err != nil {
				return err
			}
			rw, err := opts.newRewriter(cfg, logger)
			if err != nil {
				return err
			}

			if output == "" {
				output = input
			}
			res, err := rw.RewriteFile(input, output, section.Request{Items: items})
			if err != nil {
				return errors.Errorf("%s: %w", input, err)
			}

			printResult(cmd.OutOrStdout(), output, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input DOCX file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output DOCX file (defaults to the input)")
	_ = cmd.MarkFlagRequired("input")
	flags.register(cmd)
	return cmd
}

func printResult(w io.Writer, path string, res *section.Result) {
	fmt.Fprintf(w, "%s %s %s\n",
		color.New(color.FgGreen).Sprint("✓"),
		color.New(color.FgCyan).Sprint(path),
		color.New(color.Faint).Sprintf("• %s, %d removed, %d inserted", res.Preset, res.Removed, len(res.Bullets)),
	)
}
