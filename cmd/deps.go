package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/findexa/repscout/config"
	"github.com/findexa/repscout/internal/store"
	"github.com/findexa/repscout/provider"
	"github.com/findexa/repscout/repository"
	"github.com/findexa/repscout/tools/web_fetch"
)

// deps bundles the shared wiring the pipeline commands need.
type deps struct {
	cfg     *config.Config
	stores  *repository.Stores
	results *store.Store
	oracle  provider.Oracle
	fetcher web_fetch.WebFetcher
}

func buildDeps(ctx context.Context, cfgPath string) (*deps, error) {
	cfg := config.LoadConfig(cfgPath)

	stores, err := repository.NewRedisStores(ctx, cfg.Storage.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	results, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	oracle, err := provider.NewOracle(cfg.LLM)
	if err != nil {
		return nil, err
	}
	fetcher, err := web_fetch.NewWebFetcher(web_fetch.ChromedpFetcherType, cfg.Crawler.Timeout, cfg.Crawler.MaxChars)
	if err != nil {
		return nil, err
	}
	return &deps{cfg: cfg, stores: stores, results: results, oracle: oracle, fetcher: fetcher}, nil
}

// readCompanies resolves the target companies from args or a file with one
// name per line. An empty result defers to whatever the store knows.
func readCompanies(args []string, file string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if file == "" {
		return nil, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var companies []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			companies = append(companies, name)
		}
	}
	return companies, scanner.Err()
}
