package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-docsection/pkg/section"
)

// batchResult is the outcome for one input file.
type batchResult struct {
	input  string
	output string
	result *section.Result
	err    error
}

func newBatchCmd(opts *rootOpts) *cobra.Command {
	var (
		flags   sectionFlags
		pattern string
		outDir  string
		jobs    int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Rewrite every document matching a glob",
		Example: `  docsection batch --glob 'cvs/**/*.docx' --out rewritten --items-file skills.txt`,
		Args:  cobra.NoArgs,
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

			inputs, err := matchInputs(pattern)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return errors.Errorf("no files match %q", pattern)
			}

			results := runBatch(cmd, rw, inputs, pattern, outDir, jobs, section.Request{Items: items})
			return printBatch(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVarP(&pattern, "glob", "g", "", "input glob, ** matches directories")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory; the relative layout below the glob base is kept")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "documents processed concurrently")
	_ = cmd.MarkFlagRequired("glob")
	_ = cmd.MarkFlagRequired("out")
	flags.register(cmd)
	return cmd
}

// matchInputs expands pattern to regular .docx files, sorted.
func matchInputs(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("invalid glob %q: %w", pattern, err)
	}
	var inputs []string
	for _, m := range matches {
		if filepath.Ext(m) == ".docx" && filepath.Base(m)[0] != '~' {
			inputs = append(inputs, m)
		}
	}
	sort.Strings(inputs)
	return inputs, nil
}

// outputPath maps input below the static base of pattern into outDir.
func outputPath(pattern, input, outDir string) (string, error) {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	rel, err := filepath.Rel(filepath.FromSlash(base), input)
	if err != nil {
		return "", errors.Errorf("relative path of %s: %w", input, err)
	}
	return filepath.Join(outDir, rel), nil
}

func runBatch(cmd *cobra.Command, rw *section.Rewriter, inputs []string, pattern, outDir string, jobs int, req section.Request) []batchResult {
	results := make([]batchResult, len(inputs))

	g, ctx := errgroup.WithContext(cmd.Context())
	if jobs < 1 {
		jobs = 1
	}
	g.SetLimit(jobs)

	for i, input := range inputs {
		g.Go(func() error {
			results[i].input = input
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}

			output, err := outputPath(pattern, input, outDir)
			if err == nil {
				err = os.MkdirAll(filepath.Dir(output), 0o755)
			}
			if err != nil {
				results[i].err = err
				return nil
			}

			results[i].output = output
			results[i].result, results[i].err = rw.RewriteFile(input, output, req)
			// one bad document does not stop the others
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func printBatch(w io.Writer, results []batchResult) error {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(w, "%s %s %s\n",
				color.New(color.FgRed).Sprint("✗"),
				color.New(color.FgCyan).Sprint(r.input),
				color.New(color.FgRed).Sprint(r.err.Error()),
			)
			continue
		}
		printResult(w, r.output, r.result)
	}

	summary := fmt.Sprintf("%d rewritten, %d failed", len(results)-failed, failed)
	if failed > 0 {
		fmt.Fprintln(w, color.New(color.Bold, color.FgYellow).Sprint(summary))
		return errors.Errorf("%d of %d documents failed", failed, len(results))
	}
	fmt.Fprintln(w, color.New(color.Bold, color.FgGreen).Sprint(summary))
	return nil
}
