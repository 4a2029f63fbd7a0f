// Package sitefinder discovers the official website and investor relations
// page for each company through search-grounded oracle calls, validating the
// returned links by actually rendering them.
package sitefinder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/findexa/repscout/internal/telemetry"
	"github.com/findexa/repscout/models"
	"github.com/findexa/repscout/provider"
	"github.com/findexa/repscout/repository"
	"github.com/findexa/repscout/tools/web_fetch"
	"github.com/findexa/repscout/utils"
)

const conversationKindSiteFind = "site_find"

// SiteFinder resolves company web entry points and stores them.
type SiteFinder struct {
	oracle  provider.Oracle
	crawler web_fetch.WebFetcher
	sites   repository.SiteStore
	convos  repository.ConversationStore
	logger  *log.Logger

	concurrentThreads int
}

func New(
	oracle provider.Oracle,
	crawler web_fetch.WebFetcher,
	sites repository.SiteStore,
	convos repository.ConversationStore,
	concurrentThreads int,
) (*SiteFinder, error) {
	if concurrentThreads < 1 {
		return nil, fmt.Errorf("concurrent_threads must be >= 1, got %d", concurrentThreads)
	}
	return &SiteFinder{
		oracle:            oracle,
		crawler:           crawler,
		sites:             sites,
		convos:            convos,
		logger:            telemetry.NewLogger("SITEFINDER"),
		concurrentThreads: concurrentThreads,
	}, nil
}

// Run discovers sites for every company in the list, batched by
// concurrentThreads. Companies that already have a site record are skipped.
// A failure for one company never aborts the run.
func (s *SiteFinder) Run(ctx context.Context, companies []string) error {
	s.logger.Printf("site finding started for %d companies", len(companies))
	for _, batch := range utils.Batched(companies, s.concurrentThreads) {
		var wg sync.WaitGroup
		for _, company := range batch {
			company := company
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.ProcessCompany(ctx, company); err != nil {
					s.logger.Printf("site finding for %s failed: %v", company, err)
				}
			}()
		}
		wg.Wait()
	}
	s.logger.Printf("site finding finished")
	return nil
}

// ProcessCompany resolves and stores the site record for one company,
// skipping companies whose record already holds at least one link.
func (s *SiteFinder) ProcessCompany(ctx context.Context, company string) error {
	site, err := s.sites.GetSite(ctx, company)
	if err == nil && (site.OfficialWebsiteLink != nil || site.InvestorRelationsPage != nil) {
		return nil
	}

	found, err := s.FindSite(ctx, company)
	if err != nil {
		return err
	}
	return s.sites.SaveSite(ctx, company, found)
}

// FindSite asks the oracle for the company's official website and IR page,
// validates the links by fetching them, and retries once with feedback when
// every link turns out dead.
func (s *SiteFinder) FindSite(ctx context.Context, company string) (models.SiteInfo, error) {
	prompt := searchPrompt(company, time.Now())
	s.appendConversation(ctx, company, prompt)

	answer, err := s.oracle.GenerateWithSearch(ctx, prompt)
	if err != nil {
		return models.SiteInfo{}, fmt.Errorf("site search for %s: %w", company, err)
	}
	s.appendConversation(ctx, company, answer)

	site, err := s.extractSite(ctx, company, answer)
	if err != nil {
		return models.SiteInfo{}, err
	}
	if validated, ok := s.validate(ctx, site); ok {
		return validated, nil
	}

	// One retry with feedback about the dead links.
	retryPrompt := prompt + "\n\nPreviously you answered:\n" + answer +
		"\n\nThe links you retrieved were found to not be working anymore. " +
		"Try again with different queries. Use the date I provided to look for more recent results and do not return the same links."
	s.appendConversation(ctx, company, retryPrompt)

	answer, err = s.oracle.GenerateWithSearch(ctx, retryPrompt)
	if err != nil {
		return models.SiteInfo{}, fmt.Errorf("site search retry for %s: %w", company, err)
	}
	s.appendConversation(ctx, company, answer)

	site, err = s.extractSite(ctx, company, answer)
	if err != nil {
		return models.SiteInfo{}, err
	}
	if validated, ok := s.validate(ctx, site); ok {
		return validated, nil
	}
	return models.SiteInfo{}, fmt.Errorf("all site results found for %s are invalid", company)
}

// extractSite runs the structured extraction pass over a search answer.
func (s *SiteFinder) extractSite(ctx context.Context, company, answer string) (models.SiteInfo, error) {
	prompt := "Provide the answer in a structured manner. Only include links present in the following text.\n\n" + answer
	var site models.SiteInfo
	if err := s.oracle.GenerateJSON(ctx, prompt, &site); err != nil {
		return models.SiteInfo{}, fmt.Errorf("extracting site links for %s: %w", company, err)
	}
	s.appendConversation(ctx, company, prompt)
	if site.OfficialWebsiteLink == nil && site.InvestorRelationsPage == nil {
		return models.SiteInfo{}, fmt.Errorf("no site information found for %s", company)
	}
	return site, nil
}

// validate drops links that fail to render. Returns false when nothing
// survives. An unexpected crawler error leaves the link in place.
func (s *SiteFinder) validate(ctx context.Context, site models.SiteInfo) (models.SiteInfo, bool) {
	validOfficial := site.OfficialWebsiteLink != nil && s.linkAlive(ctx, *site.OfficialWebsiteLink)
	validInvestors := site.InvestorRelationsPage != nil && s.linkAlive(ctx, *site.InvestorRelationsPage)
	if !validOfficial && !validInvestors {
		return site, false
	}
	if !validOfficial {
		site.OfficialWebsiteLink = nil
	}
	if !validInvestors {
		site.InvestorRelationsPage = nil
	}
	return site, true
}

func (s *SiteFinder) linkAlive(ctx context.Context, link string) bool {
	res, err := s.crawler.Exec(ctx, link)
	if err != nil {
		return false
	}
	return res.Success
}

func (s *SiteFinder) appendConversation(ctx context.Context, company, content string) {
	if err := s.convos.AppendConversation(ctx, company, conversationKindSiteFind, content); err != nil {
		s.logger.Printf("storing conversation for %s failed: %v", company, err)
	}
}

func searchPrompt(company string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please find the official website of %s.\n", company)
	b.WriteString("If possible include the link to the investor relations page/subdomain as well.\n\n")
	b.WriteString("Include full links in your answer and list the keywords you searched for.\n")
	b.WriteString("Your answer should be structured like this:\n")
	b.WriteString("Queries/keywords I used:\n    - your queries go here\n    ...\nResults:\n    - the links you found go here\n\n")
	fmt.Fprintf(&b, "The current date is %s.", now.Format("2006-01-02"))
	return b.String()
}
