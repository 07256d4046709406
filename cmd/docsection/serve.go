package main

import (
	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-docsection/internal/server"
)

func newServeCmd(opts *rootOpts) *cobra.Command {
	var (
		port       int
		storageDir string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if storageDir != "" {
				cfg.StorageDir = storageDir
			}
			if watch {
				cfg.WatchPresets = true
			}

			logger, err := opts.logger(cfg)
			if err != nil {
				return err
			}
			registry, err := opts.registry(cfg, logger)
			if err != nil {
				return err
			}

			srv, err := server.New(cfg,
				server.WithLogger(logger),
				server.WithVersion(version),
				server.WithRegistry(registry),
			)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 5000, "listen port")
	cmd.Flags().StringVar(&storageDir, "storage-dir", "", "directory for generated files")
	cmd.Flags().BoolVar(&watch, "watch-presets", false, "reload presets when the preset directory changes")
	return cmd
}
