package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/findexa/repscout/internal/archive"
	"github.com/findexa/repscout/internal/finder"
)

func findCMD() *cobra.Command {
	var cfgPath string
	var companiesFile string

	var find = &cobra.Command{
		Use:   "find [companies...]",
		Short: "Crawl company websites and resolve annual report links",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := buildDeps(ctx, cfgPath)
			if err != nil {
				return err
			}
			companies, err := readCompanies(args, companiesFile)
			if err != nil {
				return err
			}
			pages, err := archive.New()
			if err != nil {
				return err
			}
			f, err := finder.New(d.fetcher, d.oracle, d.stores.Ledger, d.stores.Sites,
				d.stores.Conversations, d.results, pages, nil,
				d.cfg.Finder.MaxPagesPerCompany, d.cfg.Finder.ConcurrentThreads)
			if err != nil {
				return err
			}
			return f.Run(ctx, companies)
		},
	}
	find.Flags().StringVar(&companiesFile, "companies-file", "", "file with one company name per line")
	find.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return find
}
