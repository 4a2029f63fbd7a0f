package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/findexa/repscout/models"
)

type fakeSource struct {
	companies []string
	links     map[string]*models.ReportLink
	paths     map[string]string
}

func newFakeSource() *fakeSource {
	return &fakeSource{links: map[string]*models.ReportLink{}, paths: map[string]string{}}
}

func (f *fakeSource) CompaniesWithLinks(ctx context.Context) ([]string, error) {
	return f.companies, nil
}

func (f *fakeSource) ReportLink(ctx context.Context, company string) (*models.ReportLink, error) {
	return f.links[company], nil
}

func (f *fakeSource) SaveReportPath(ctx context.Context, company, localPath string) error {
	f.paths[company] = localPath
	return nil
}

func TestDownloadReportPDFBySuffix(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d, err := New(newFakeSource(), dir, 5*time.Second, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	link := models.ReportLink{
		Link:    models.Ptr(srv.URL + "/reports/ar2023.pdf"),
		RefYear: models.Ptr(2023),
	}
	path, err := d.DownloadReport(context.Background(), "ACME CORP", link)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Base(path) != "ACME_CORP_2023.pdf" {
		t.Fatalf("unexpected filename: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestDownloadReportHTMLByContentType(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>report</html>"))
	}))
	defer srv.Close()

	d, err := New(newFakeSource(), t.TempDir(), 5*time.Second, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	link := models.ReportLink{Link: models.Ptr(srv.URL + "/annual-report")}
	path, err := d.DownloadReport(context.Background(), "ACME CORP", link)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Base(path) != "ACME_CORP_.html" {
		t.Fatalf("unexpected filename: %s", path)
	}
}

func TestDownloadRetriesForbiddenWithBrowserAgent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.UserAgent(), "Mozilla") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 gated"))
	}))
	defer srv.Close()

	d, err := New(newFakeSource(), t.TempDir(), 5*time.Second, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	link := models.ReportLink{Link: models.Ptr(srv.URL + "/gated"), RefYear: models.Ptr(2024)}
	path, err := d.DownloadReport(context.Background(), "ACME CORP", link)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Base(path) != "ACME_CORP_2024.pdf" {
		t.Fatalf("unexpected filename: %s", path)
	}
}

func TestDownloadFailsOnServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d, err := New(newFakeSource(), t.TempDir(), 5*time.Second, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	link := models.ReportLink{Link: models.Ptr(srv.URL + "/broken.pdf")}
	if _, err := d.DownloadReport(context.Background(), "ACME CORP", link); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestRunRecordsLocalPathsAndSkipsMissingLinks(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	source := newFakeSource()
	source.companies = []string{"ACME CORP", "NO LINK CO"}
	source.links["ACME CORP"] = &models.ReportLink{
		Link:    models.Ptr(srv.URL + "/ar.pdf"),
		RefYear: models.Ptr(2023),
	}

	d, err := New(source, t.TempDir(), 5*time.Second, 2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := source.paths["ACME CORP"]; !ok {
		t.Fatalf("local path not recorded")
	}
	if _, ok := source.paths["NO LINK CO"]; ok {
		t.Fatalf("path recorded for company without link")
	}
}

func TestCleanFilename(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"ACME CORP_2023", "ACME_CORP_2023"},
		{"a/b\\c", "abc"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := cleanFilename(tc.in); got != tc.want {
			t.Fatalf("cleanFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
