package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/findexa/repscout/internal/exporter"
)

func exportCMD() *cobra.Command {
	var cfgPath string
	var outputDir string

	var export = &cobra.Command{
		Use:   "export",
		Short: "Export discovery and extraction data as semicolon CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := buildDeps(ctx, cfgPath)
			if err != nil {
				return err
			}
			return exporter.New(d.stores.Sites, d.results, outputDir).Run(ctx)
		},
	}
	export.Flags().StringVar(&outputDir, "out", "./export", "output directory for CSV files")
	export.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return export
}
