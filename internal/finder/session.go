package finder

import (
	"context"
	"fmt"
	"time"

	"github.com/findexa/repscout/models"
)

// crawlSession is the in-memory state of one (company, attempt). Created
// fresh at the start of CrawlToReport and discarded when the session ends;
// its terminal state survives only in the ledger.
type crawlSession struct {
	currentURL string
	history    []models.ActionRecord
	urlStack   []string
}

// fetchAttempt tracks the retry-once policy for a single page fetch.
type fetchAttempt int

const (
	notYetRetried fetchAttempt = iota
	retried
)

// fetchPage renders url, retrying once on failure. A double failure on the
// session's first page returns ErrStartPageUnreachable; on later pages it
// degrades into a synthetic failure-notice body so the oracle can decide to
// go back or abort itself.
func (f *Finder) fetchPage(ctx context.Context, company, url string, firstPage bool) (string, error) {
	attempt := notYetRetried
	for {
		t0 := time.Now()
		res, err := f.crawler.Exec(ctx, url)
		f.metrics.FetchSeconds.Observe(time.Since(t0).Seconds())
		if err == nil && res.Success {
			f.metrics.PagesFetched.Inc()
			if f.archive != nil {
				if aerr := f.archive.IndexPage(ctx, company, url, res.Title, res.Markdown); aerr != nil {
					f.logger.Printf("page archive index failed for %s: %v", url, aerr)
				}
			}
			return res.Markdown, nil
		}
		f.metrics.FetchFailures.Inc()
		if attempt == notYetRetried {
			attempt = retried
			continue
		}
		if firstPage {
			return "", fmt.Errorf("%w: %s", ErrStartPageUnreachable, url)
		}
		return fmt.Sprintf("Failed to crawl %s", url), nil
	}
}

// decide runs one oracle round-trip for the current page and applies the
// decision to the session. Returns a resolved report on done, ErrCrawlAborted
// on abort, and (nil, nil) when the session should keep going.
func (f *Finder) decide(ctx context.Context, company, pageMarkdown string, sess *crawlSession) (*models.ReportLink, error) {
	prompt := crawlPrompt(pageMarkdown, sess.history, sess.urlStack)
	if f.convos != nil {
		if err := f.convos.AppendConversation(ctx, company, conversationKindReportFind, prompt); err != nil {
			f.logger.Printf("conversation store append failed for %s: %v", company, err)
		}
	}

	f.metrics.OracleCalls.Inc()
	action, err := f.oracle.DecideAction(ctx, prompt)
	if err != nil {
		f.metrics.OracleFailures.Inc()
		return nil, err
	}
	if err := action.Validate(); err != nil {
		return nil, err
	}
	if f.convos != nil {
		if err := f.convos.AppendConversation(ctx, company, conversationKindReportFind, renderAction(action)); err != nil {
			f.logger.Printf("conversation store append failed for %s: %v", company, err)
		}
	}

	// The stack records the page we were on when we decided, so push before
	// applying the decision.
	sess.urlStack = append(sess.urlStack, sess.currentURL)
	record := models.ActionRecord{
		NavigationAction: action,
		TakenAtURL:       sess.currentURL,
		ActionTsMs:       time.Now().UnixMilli(),
	}
	if err := f.ledger.StoreAction(ctx, company, sess.currentURL, record, record.IsFinal()); err != nil {
		return nil, err
	}
	sess.history = append(sess.history, record)

	switch action.Kind {
	case models.ActionDone:
		year, err := models.ParseReferenceYear(action.ReferenceYear)
		if err != nil {
			return nil, err
		}
		return &models.ReportLink{Link: action.Link, RefYear: year}, nil
	case models.ActionAbort:
		reason := ""
		if action.Error != nil {
			reason = *action.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrCrawlAborted, reason)
	case models.ActionVisit:
		sess.currentURL = *action.LinkToVisit
	case models.ActionBack:
		if len(sess.urlStack) < 2 {
			return nil, fmt.Errorf("%w: back action taken with no previous url", models.ErrProtocolViolation)
		}
		sess.currentURL = sess.urlStack[len(sess.urlStack)-2]
	}
	return nil, nil
}

func renderAction(action models.NavigationAction) string {
	return fmt.Sprintf("action=%s link=%s link_to_visit=%s reference_year=%s",
		action.Kind, deref(action.Link), deref(action.LinkToVisit), deref(action.ReferenceYear))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
