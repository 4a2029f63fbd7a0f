package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/findexa/repscout/internal/sitefinder"
)

func sitesCMD() *cobra.Command {
	var cfgPath string
	var companiesFile string

	var sites = &cobra.Command{
		Use:   "sites [companies...]",
		Short: "Discover official websites and investor relations pages",
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
			if len(companies) == 0 {
				return fmt.Errorf("no companies given (pass names as args or --companies-file)")
			}
			sf, err := sitefinder.New(d.oracle, d.fetcher, d.stores.Sites,
				d.stores.Conversations, d.cfg.Finder.ConcurrentThreads)
			if err != nil {
				return err
			}
			return sf.Run(ctx, companies)
		},
	}
	sites.Flags().StringVar(&companiesFile, "companies-file", "", "file with one company name per line")
	sites.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return sites
}
