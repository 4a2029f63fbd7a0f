package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/findexa/repscout/internal/downloader"
)

func downloadCMD() *cobra.Command {
	var cfgPath string

	var download = &cobra.Command{
		Use:   "download",
		Short: "Download resolved annual reports to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := buildDeps(ctx, cfgPath)
			if err != nil {
				return err
			}
			dl, err := downloader.New(d.results, d.cfg.Downloads.Directory,
				d.cfg.Downloads.Timeout, d.cfg.Finder.ConcurrentThreads)
			if err != nil {
				return err
			}
			return dl.Run(ctx)
		},
	}
	download.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return download
}
