// Package downloader fetches resolved annual reports (PDF or HTML) to local
// disk so the extraction pipeline can work offline.
package downloader

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/findexa/repscout/internal/telemetry"
	"github.com/findexa/repscout/models"
	"github.com/findexa/repscout/utils"
)

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

// LinkSource lists companies with resolved links and records where the
// downloaded file landed. Implemented by the Postgres store.
type LinkSource interface {
	CompaniesWithLinks(ctx context.Context) ([]string, error)
	ReportLink(ctx context.Context, company string) (*models.ReportLink, error)
	SaveReportPath(ctx context.Context, company, localPath string) error
}

// Downloader pulls report documents for every company with a resolved link.
type Downloader struct {
	source LinkSource
	client *http.Client
	logger *log.Logger

	directory         string
	concurrentThreads int
}

func New(source LinkSource, directory string, timeout time.Duration, concurrentThreads int) (*Downloader, error) {
	if concurrentThreads < 1 {
		return nil, fmt.Errorf("concurrent_threads must be >= 1, got %d", concurrentThreads)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Downloader{
		source:            source,
		client:            &http.Client{Timeout: timeout},
		logger:            telemetry.NewLogger("DOWNLOADER"),
		directory:         directory,
		concurrentThreads: concurrentThreads,
	}, nil
}

// Run downloads reports for every company holding a resolved link, batched by
// concurrentThreads. Already-downloaded reports are skipped.
func (d *Downloader) Run(ctx context.Context) error {
	companies, err := d.source.CompaniesWithLinks(ctx)
	if err != nil {
		return fmt.Errorf("listing companies: %w", err)
	}
	if len(companies) == 0 {
		return nil
	}
	if err := os.MkdirAll(d.directory, 0o755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	for _, batch := range utils.Batched(companies, d.concurrentThreads) {
		var wg sync.WaitGroup
		for _, company := range batch {
			company := company
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := d.ProcessCompany(ctx, company); err != nil {
					d.logger.Printf("download for %s failed: %v", company, err)
				}
			}()
		}
		wg.Wait()
	}
	return nil
}

// ProcessCompany downloads one company's report and records its local path.
func (d *Downloader) ProcessCompany(ctx context.Context, company string) error {
	link, err := d.source.ReportLink(ctx, company)
	if err != nil {
		return err
	}
	if link == nil || link.Link == nil {
		d.logger.Printf("report link missing for %s, skipping download", company)
		return nil
	}

	path, err := d.DownloadReport(ctx, company, *link)
	if err != nil {
		return err
	}
	return d.source.SaveReportPath(ctx, company, path)
}

// DownloadReport fetches the linked document and returns the local path. The
// extension is decided by URL suffix first, then Content-Type. A 403 is
// retried once with a browser user agent.
func (d *Downloader) DownloadReport(ctx context.Context, company string, link models.ReportLink) (string, error) {
	if link.Link == nil {
		return "", fmt.Errorf("link must not be nil for %s", company)
	}

	body, contentType, err := d.get(ctx, *link.Link, "")
	if err != nil {
		se, ok := err.(*statusError)
		if !ok || se.status != http.StatusForbidden {
			return "", fmt.Errorf("downloading report for %s: %w", company, err)
		}
		d.logger.Printf("retrying download with browser user agent for %s", company)
		body, contentType, err = d.get(ctx, *link.Link, browserUserAgent)
		if err != nil {
			return "", fmt.Errorf("downloading report for %s: %w", company, err)
		}
	}
	defer body.Close()

	refyear := ""
	if link.RefYear != nil {
		refyear = fmt.Sprintf("%d", *link.RefYear)
	}
	name := cleanFilename(company+"_"+refyear) + extensionFor(*link.Link, contentType)
	path := filepath.Join(d.directory, name)

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, body); err != nil {
		return "", fmt.Errorf("writing report for %s: %w", company, err)
	}
	return path, nil
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

// get issues the request and returns the body stream on 2xx.
func (d *Downloader) get(ctx context.Context, link, userAgent string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, "", err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, "", &statusError{status: resp.StatusCode}
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// extensionFor prefers the URL path suffix, falling back to Content-Type.
func extensionFor(link, contentType string) string {
	if u, err := url.Parse(link); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return ".pdf"
	}
	if strings.Contains(contentType, "application/pdf") {
		return ".pdf"
	}
	return ".html"
}

// cleanFilename swaps spaces for underscores and strips path separators.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "\\", "")
	return strings.ReplaceAll(name, "/", "")
}
