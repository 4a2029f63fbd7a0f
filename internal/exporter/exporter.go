// Package exporter writes the collected discovery and extraction data to
// semicolon-separated CSV files.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/findexa/repscout/internal/store"
	"github.com/findexa/repscout/internal/telemetry"
	"github.com/findexa/repscout/repository"
)

// DataSource is the results-store surface the exporter reads from.
type DataSource interface {
	ReportRow(ctx context.Context, company string) (*store.ReportRow, error)
	InfoRow(ctx context.Context, company string) (*store.InfoRow, error)
}

// Exporter flattens store contents into discovery.csv and extraction.csv.
type Exporter struct {
	sites  repository.SiteStore
	data   DataSource
	logger *log.Logger

	outputDir string
	now       func() time.Time
}

func New(sites repository.SiteStore, data DataSource, outputDir string) *Exporter {
	return &Exporter{
		sites:     sites,
		data:      data,
		logger:    telemetry.NewLogger("EXPORTER"),
		outputDir: outputDir,
		now:       time.Now,
	}
}

// Run writes both CSV files for every known company.
func (e *Exporter) Run(ctx context.Context) error {
	companies, err := e.sites.Companies(ctx)
	if err != nil {
		return fmt.Errorf("listing companies: %w", err)
	}
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := e.ExportDiscovery(ctx, companies, filepath.Join(e.outputDir, "discovery.csv")); err != nil {
		return err
	}
	return e.ExportExtraction(ctx, companies, filepath.Join(e.outputDir, "extraction.csv"))
}

// ExportDiscovery writes one FINREP and one WEBSITE row per company.
func (e *Exporter) ExportDiscovery(ctx context.Context, companies []string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	defer w.Flush()

	if err := w.Write([]string{"NAME", "TYPE", "SRC", "REFYEAR"}); err != nil {
		return err
	}

	currentYear := strconv.Itoa(e.now().Year())
	for _, company := range companies {
		link, refYear, err := e.reportLinkAndYear(ctx, company)
		if err != nil {
			return err
		}
		finrep := []string{company, "FINREP", "", ""}
		if link != "" && refYear != "" {
			finrep[2], finrep[3] = link, refYear
		}
		if err := w.Write(finrep); err != nil {
			return err
		}

		site := e.siteLink(ctx, company)
		website := []string{company, "WEBSITE", "", ""}
		if site != "" {
			website[2], website[3] = site, currentYear
		}
		if err := w.Write(website); err != nil {
			return err
		}
	}
	return w.Error()
}

// ExportExtraction writes one row per (company, variable) pair.
func (e *Exporter) ExportExtraction(ctx context.Context, companies []string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	defer w.Flush()

	if err := w.Write([]string{"NAME", "VARIABLE", "VALUE", "CURRENCY", "REFYEAR", "SRC"}); err != nil {
		return err
	}

	currentYear := strconv.Itoa(e.now().Year())
	for _, company := range companies {
		if site := e.siteLink(ctx, company); site != "" {
			if err := w.Write([]string{company, "WEBSITE", site, "", currentYear, "https://google.com"}); err != nil {
				return err
			}
		}

		link, refYear, err := e.reportLinkAndYear(ctx, company)
		if err != nil {
			return err
		}
		if link == "" {
			e.logger.Printf("no report data to export for %s", company)
			continue
		}
		row, err := e.data.InfoRow(ctx, company)
		if err != nil {
			return err
		}
		// A value without a reference year is worthless downstream.
		if row == nil || refYear == "" {
			continue
		}
		info := row.Info

		if info.CountryCode != nil {
			if err := w.Write([]string{company, "COUNTRY", *info.CountryCode, "", refYear, link}); err != nil {
				return err
			}
		}
		if info.NetTurnover != nil && info.CurrencyCodeTurnover != nil {
			if err := w.Write([]string{company, "TURNOVER", strconv.FormatInt(*info.NetTurnover, 10), *info.CurrencyCodeTurnover, refYear, link}); err != nil {
				return err
			}
		}
		if info.AssetsValue != nil && info.CurrencyCodeAssets != nil {
			if err := w.Write([]string{company, "ASSETS", strconv.FormatInt(*info.AssetsValue, 10), *info.CurrencyCodeAssets, refYear, link}); err != nil {
				return err
			}
		}
		if info.EmployeeCount != nil {
			if err := w.Write([]string{company, "EMPLOYEES", strconv.FormatInt(*info.EmployeeCount, 10), "", refYear, link}); err != nil {
				return err
			}
		}
		if nace := naceCode(row); nace != "" {
			if err := w.Write([]string{company, "ACTIVITY", nace, "", refYear, link}); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

// reportLinkAndYear resolves the exported link and the best reference year.
// The extraction year wins over the discovery year when it is later.
func (e *Exporter) reportLinkAndYear(ctx context.Context, company string) (string, string, error) {
	row, err := e.data.ReportRow(ctx, company)
	if err != nil {
		return "", "", err
	}
	if row == nil || row.Link == nil {
		return "", "", nil
	}
	refYear := row.RefYear

	info, err := e.data.InfoRow(ctx, company)
	if err != nil {
		return "", "", err
	}
	if info != nil && info.Info.ReferenceYear != nil {
		if refYear == nil || *info.Info.ReferenceYear > *refYear {
			refYear = info.Info.ReferenceYear
		}
	}
	year := ""
	if refYear != nil {
		year = strconv.Itoa(*refYear)
	}
	return *row.Link, year, nil
}

// siteLink prefers the official website over the IR page, https-prefixed.
func (e *Exporter) siteLink(ctx context.Context, company string) string {
	site, err := e.sites.GetSite(ctx, company)
	if err != nil {
		return ""
	}
	link := site.OfficialWebsiteLink
	if link == nil {
		link = site.InvestorRelationsPage
	}
	if link == nil {
		return ""
	}
	if !strings.HasPrefix(*link, "http://") && !strings.HasPrefix(*link, "https://") {
		return "https://" + *link
	}
	return *link
}

func naceCode(row *store.InfoRow) string {
	if row.Lvl1 == nil {
		return ""
	}
	code := *row.Lvl1
	if row.Lvl2 != nil {
		code += *row.Lvl2
	}
	return code
}
