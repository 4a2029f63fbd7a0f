// Package finder drives the LLM-guided navigation from a company's website
// to a direct link to its latest annual financial report.
package finder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/findexa/repscout/internal/telemetry"
	"github.com/findexa/repscout/models"
	"github.com/findexa/repscout/provider"
	"github.com/findexa/repscout/repository"
	"github.com/findexa/repscout/tools/web_fetch"
	"github.com/findexa/repscout/utils"
)

const conversationKindReportFind = "report_find"

// DefaultMaxPagesPerCompany bounds how many pages one session may visit.
const DefaultMaxPagesPerCompany = 10

// ResultStore is where resolved report links end up. Implemented by the
// Postgres store; memoizes companies across runs.
type ResultStore interface {
	// ReportLink returns the stored link for company, or nil when absent.
	ReportLink(ctx context.Context, company string) (*models.ReportLink, error)
	SaveReportLink(ctx context.Context, company string, link models.ReportLink) error
}

// PageArchiver receives every successfully fetched page for later inspection.
type PageArchiver interface {
	IndexPage(ctx context.Context, company, url, title, text string) error
}

// Finder crawls company websites to locate annual financial reports.
type Finder struct {
	crawler web_fetch.WebFetcher
	oracle  provider.Oracle
	ledger  repository.ActionLedger
	sites   repository.SiteStore
	convos  repository.ConversationStore
	results ResultStore
	archive PageArchiver
	metrics *telemetry.Metrics
	logger  *log.Logger

	maxPagesPerCompany int
	concurrentThreads  int
}

// New wires a Finder. concurrentThreads below 1 is a configuration error.
func New(
	crawler web_fetch.WebFetcher,
	oracle provider.Oracle,
	ledger repository.ActionLedger,
	sites repository.SiteStore,
	convos repository.ConversationStore,
	results ResultStore,
	archive PageArchiver,
	metrics *telemetry.Metrics,
	maxPagesPerCompany int,
	concurrentThreads int,
) (*Finder, error) {
	if concurrentThreads < 1 {
		return nil, fmt.Errorf("concurrent_threads must be >= 1, got %d", concurrentThreads)
	}
	if maxPagesPerCompany < 1 {
		maxPagesPerCompany = DefaultMaxPagesPerCompany
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &Finder{
		crawler:            crawler,
		oracle:             oracle,
		ledger:             ledger,
		sites:              sites,
		convos:             convos,
		results:            results,
		archive:            archive,
		metrics:            metrics,
		logger:             telemetry.NewLogger("FINDER"),
		maxPagesPerCompany: maxPagesPerCompany,
		concurrentThreads:  concurrentThreads,
	}, nil
}

// Run processes companies in batches of concurrentThreads, waiting for each
// batch before starting the next. A nil list means every company known to the
// site store. A failure for one company never aborts the batch or the run.
func (f *Finder) Run(ctx context.Context, companies []string) error {
	if companies == nil {
		known, err := f.sites.Companies(ctx)
		if err != nil {
			return fmt.Errorf("listing companies: %w", err)
		}
		companies = known
	}
	if len(companies) == 0 {
		return nil
	}

	for _, batch := range utils.Batched(companies, f.concurrentThreads) {
		var wg sync.WaitGroup
		for _, company := range batch {
			company := company
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := f.ProcessCompany(ctx, company); err != nil {
					f.logger.Printf("processing %s failed: %v", company, err)
				}
			}()
		}
		wg.Wait()
	}
	return nil
}

// ProcessCompany resolves one company's report link and persists it. Skips
// companies whose results-store entry already carries a link.
func (f *Finder) ProcessCompany(ctx context.Context, company string) error {
	existing, err := f.results.ReportLink(ctx, company)
	if err != nil {
		return err
	}
	if existing != nil && existing.Link != nil {
		return nil
	}
	res, err := f.FindAnnualReport(ctx, company)
	if err != nil {
		return err
	}
	if res == nil || res.Link == nil {
		f.logger.Printf("could not find report link for %s", company)
		return nil
	}
	return f.results.SaveReportLink(ctx, company, *res)
}

// FindAnnualReport resolves a company's annual report. The ledger's done
// marker is the durable memoization boundary: a recorded done short-circuits
// to its link, a recorded abort is a firm negative. Otherwise candidate
// starting URLs are tried in order, investor relations page first.
func (f *Finder) FindAnnualReport(ctx context.Context, company string) (*models.ReportLink, error) {
	done, err := f.ledger.DoneAction(ctx, company)
	if err != nil {
		return nil, err
	}
	if done != nil {
		if done.Kind != models.ActionDone { // aborted
			return nil, nil
		}
		year, err := models.ParseReferenceYear(done.ReferenceYear)
		if err != nil {
			return nil, err
		}
		return &models.ReportLink{Link: done.Link, RefYear: year}, nil
	}

	var startURLs []string
	site, err := f.sites.GetSite(ctx, company)
	if err != nil {
		if !errors.Is(err, models.ErrSiteNotFound) {
			return nil, err
		}
		f.logger.Printf("report discovery called on company with no site record: %s", company)
	} else {
		if site.InvestorRelationsPage != nil {
			startURLs = append(startURLs, *site.InvestorRelationsPage)
		}
		if site.OfficialWebsiteLink != nil {
			startURLs = append(startURLs, *site.OfficialWebsiteLink)
		}
	}
	if len(startURLs) == 0 {
		f.logger.Printf("skipping report discovery for %s, no valid starting link found", company)
		return nil, nil
	}

	for _, url := range startURLs {
		link, err := f.CrawlToReport(ctx, company, url)
		if err != nil {
			f.logger.Printf("crawl from %s failed for %s: %v", url, company, err)
			continue
		}
		return link, nil
	}
	return nil, nil
}

// CrawlToReport runs one crawl session for company starting at startURL. It
// returns (nil, nil) on abort and on budget exhaustion; recoverable errors
// (unreachable start page, oracle failure, protocol violation) surface so the
// caller can try another starting URL.
func (f *Finder) CrawlToReport(ctx context.Context, company, startURL string) (*models.ReportLink, error) {
	if strings.TrimSpace(startURL) == "" {
		return nil, fmt.Errorf("crawl requires a non-empty start url")
	}
	sess := &crawlSession{currentURL: startURL}

	// A session always starts clean: prior partial progress is discarded.
	if err := f.ledger.DeleteAll(ctx, company); err != nil {
		return nil, err
	}

	for pageVisits := 0; pageVisits < f.maxPagesPerCompany; pageVisits++ {
		markdown, err := f.fetchPage(ctx, company, sess.currentURL, pageVisits == 0)
		if err != nil {
			return nil, err
		}

		report, err := f.decide(ctx, company, markdown, sess)
		if err != nil {
			if errors.Is(err, ErrCrawlAborted) {
				f.metrics.SessionsAborted.Inc()
				f.logger.Printf("oracle aborted crawl for %s: %v", company, err)
				return nil, nil
			}
			return nil, err
		}
		if report != nil {
			f.metrics.ReportsResolved.Inc()
			return report, nil
		}
	}

	f.metrics.SessionsExhausted.Inc()
	f.logger.Printf("page budget exhausted for %s", company)
	return nil, nil
}
