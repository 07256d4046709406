package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-docsection/pkg/section"
)

func newPresetsCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the available style presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, defaultName, err := opts.presets()
			if err != nil {
				return err
			}
			return listPresets(cmd.OutOrStdout(), registry.List(), defaultName)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Print a preset as YAML, usable as the base of a preset file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, _, err := opts.presets()
			if err != nil {
				return err
			}
			p, err := registry.Lookup(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(p); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}

func (o *rootOpts) presets() (*section.Registry, string, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, "", err
	}
	logger, err := o.logger(cfg)
	if err != nil {
		return nil, "", err
	}
	registry, err := o.registry(cfg, logger)
	if err != nil {
		return nil, "", err
	}
	return registry, cfg.Preset, nil
}

func listPresets(w io.Writer, presets []section.Preset, defaultName string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGLYPH\tINDENT\tSPACING\tDESCRIPTION")
	for _, p := range presets {
		name := p.Name
		if name == defaultName {
			name = color.New(color.Bold).Sprint(name + "*")
		}
		fmt.Fprintf(tw, "%s\t%s #%s\t%gpt\t%g/%gpt\t%s\n",
			name, p.BulletGlyph, p.BulletColor, p.LeftIndent,
			p.InteriorSpaceAfter, p.LastItemSpaceAfter, p.Description)
	}
	return tw.Flush()
}
