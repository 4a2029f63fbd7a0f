package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/findexa/repscout/internal/extractor"
)

func extractCMD() *cobra.Command {
	var cfgPath string

	var extract = &cobra.Command{
		Use:   "extract",
		Short: "Extract financial figures and NACE codes from downloaded reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := buildDeps(ctx, cfgPath)
			if err != nil {
				return err
			}
			ex, err := extractor.New(d.oracle, d.results, d.stores.Conversations,
				d.cfg.Finder.ConcurrentThreads)
			if err != nil {
				return err
			}
			return ex.Run(ctx)
		},
	}
	extract.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return extract
}
