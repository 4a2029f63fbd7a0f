package exporter

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/findexa/repscout/internal/store"
	"github.com/findexa/repscout/models"
	"github.com/findexa/repscout/repository/inmemory"
)

type fakeData struct {
	rows map[string]*store.ReportRow
	info map[string]*store.InfoRow
}

func (f *fakeData) ReportRow(ctx context.Context, company string) (*store.ReportRow, error) {
	return f.rows[company], nil
}

func (f *fakeData) InfoRow(ctx context.Context, company string) (*store.InfoRow, error) {
	return f.info[company], nil
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}

func fixture(t *testing.T) (*Exporter, string) {
	t.Helper()

	sites := inmemory.NewSiteStore()
	if err := sites.SaveSite(context.Background(), "ACME CORP", models.SiteInfo{
		OfficialWebsiteLink: models.Ptr("acme.example"),
	}); err != nil {
		t.Fatalf("seed site: %v", err)
	}
	if err := sites.SaveSite(context.Background(), "EMPTY CO", models.SiteInfo{}); err != nil {
		t.Fatalf("seed site: %v", err)
	}

	data := &fakeData{
		rows: map[string]*store.ReportRow{
			"ACME CORP": {
				Company: "ACME CORP",
				Link:    models.Ptr("https://acme.example/ar2023.pdf"),
				RefYear: models.Ptr(2023),
			},
		},
		info: map[string]*store.InfoRow{
			"ACME CORP": {
				Company: "ACME CORP",
				Info: models.ReportInfo{
					CountryCode:          models.Ptr("NO"),
					EmployeeCount:        models.Ptr(int64(412)),
					NetTurnover:          models.Ptr(int64(4200000)),
					CurrencyCodeTurnover: models.Ptr("NOK"),
					ReferenceYear:        models.Ptr(2024),
				},
				Lvl1: models.Ptr("C"),
				Lvl2: models.Ptr("25"),
			},
		},
	}

	dir := t.TempDir()
	e := New(sites, data, dir)
	e.now = func() time.Time { return time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC) }
	return e, dir
}

func TestExportDiscovery(t *testing.T) {
	t.Parallel()

	e, dir := fixture(t)
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records := readCSV(t, filepath.Join(dir, "discovery.csv"))
	if len(records) != 5 { // header + 2 rows per company
		t.Fatalf("expected 5 records, got %d: %v", len(records), records)
	}

	byKey := map[string][]string{}
	for _, r := range records[1:] {
		byKey[r[0]+"/"+r[1]] = r
	}

	finrep := byKey["ACME CORP/FINREP"]
	if finrep[2] != "https://acme.example/ar2023.pdf" {
		t.Fatalf("finrep src: %v", finrep)
	}
	// Extraction year 2024 beats discovery year 2023.
	if finrep[3] != "2024" {
		t.Fatalf("finrep refyear: %v", finrep)
	}

	website := byKey["ACME CORP/WEBSITE"]
	if website[2] != "https://acme.example" {
		t.Fatalf("website src not https-prefixed: %v", website)
	}
	if website[3] != "2026" {
		t.Fatalf("website refyear: %v", website)
	}

	empty := byKey["EMPTY CO/FINREP"]
	if empty[2] != "" || empty[3] != "" {
		t.Fatalf("empty company should have blank finrep: %v", empty)
	}
}

func TestExportExtraction(t *testing.T) {
	t.Parallel()

	e, dir := fixture(t)
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records := readCSV(t, filepath.Join(dir, "extraction.csv"))
	byKey := map[string][]string{}
	for _, r := range records[1:] {
		byKey[r[0]+"/"+r[1]] = r
	}

	turnover := byKey["ACME CORP/TURNOVER"]
	if turnover == nil || turnover[2] != "4200000" || turnover[3] != "NOK" {
		t.Fatalf("turnover row: %v", turnover)
	}
	if turnover[4] != "2024" || turnover[5] != "https://acme.example/ar2023.pdf" {
		t.Fatalf("turnover refyear/src: %v", turnover)
	}

	if _, ok := byKey["ACME CORP/ASSETS"]; ok {
		t.Fatalf("assets exported without currency")
	}

	employees := byKey["ACME CORP/EMPLOYEES"]
	if employees == nil || employees[2] != "412" {
		t.Fatalf("employees row: %v", employees)
	}

	activity := byKey["ACME CORP/ACTIVITY"]
	if activity == nil || activity[2] != "C25" {
		t.Fatalf("activity row: %v", activity)
	}

	website := byKey["ACME CORP/WEBSITE"]
	if website == nil || website[5] != "https://google.com" {
		t.Fatalf("website row: %v", website)
	}

	if _, ok := byKey["EMPTY CO/WEBSITE"]; ok {
		t.Fatalf("empty company should export nothing")
	}
}
