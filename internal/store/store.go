// Package store is the Postgres-backed results store: resolved report links
// and the figures extracted from them.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/findexa/repscout/models"
	_ "github.com/lib/pq"
)

type Store struct {
	DB *sql.DB
}

// NewWithDSN opens and pings a Postgres connection. Schema is managed by
// golang-migrate (see migrations/).
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// ReportLink returns the stored link for company, or nil when absent.
func (s *Store) ReportLink(ctx context.Context, company string) (*models.ReportLink, error) {
	var link models.ReportLink
	err := s.DB.QueryRowContext(ctx,
		`SELECT link, refyear FROM report_links WHERE company = $1`, company,
	).Scan(&link.Link, &link.RefYear)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// SaveReportLink upserts the resolved link for company.
func (s *Store) SaveReportLink(ctx context.Context, company string, link models.ReportLink) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO report_links (company, link, refyear)
		VALUES ($1, $2, $3)
		ON CONFLICT (company) DO UPDATE SET link = EXCLUDED.link, refyear = EXCLUDED.refyear, updated_at = now()`,
		company, link.Link, link.RefYear)
	return err
}

// SaveReportPath records where the downloaded report file lives.
func (s *Store) SaveReportPath(ctx context.Context, company, localPath string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE report_links SET local_path = $2, updated_at = now() WHERE company = $1`,
		company, localPath)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrReportNotFound
	}
	return nil
}

// CompaniesWithLinks returns every company holding a non-null resolved link.
func (s *Store) CompaniesWithLinks(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT company FROM report_links WHERE link IS NOT NULL ORDER BY company`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var companies []string
	for rows.Next() {
		var company string
		if err := rows.Scan(&company); err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

// ReportRow is one exportable discovery record.
type ReportRow struct {
	Company   string
	Link      *string
	RefYear   *int
	LocalPath *string
}

// ReportRow returns the discovery record for company, or nil when absent.
func (s *Store) ReportRow(ctx context.Context, company string) (*ReportRow, error) {
	var r ReportRow
	err := s.DB.QueryRowContext(ctx,
		`SELECT company, link, refyear, local_path FROM report_links WHERE company = $1`, company,
	).Scan(&r.Company, &r.Link, &r.RefYear, &r.LocalPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ReportRows returns all discovery records, ordered by company.
func (s *Store) ReportRows(ctx context.Context) ([]ReportRow, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT company, link, refyear, local_path FROM report_links ORDER BY company`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReportRow
	for rows.Next() {
		var r ReportRow
		if err := rows.Scan(&r.Company, &r.Link, &r.RefYear, &r.LocalPath); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveReportInfo upserts extracted figures for company.
func (s *Store) SaveReportInfo(ctx context.Context, company string, info models.ReportInfo) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO report_info (
			company, country_code, employee_count, assets_value, net_turnover,
			currency_code_assets, currency_code_turnover, main_activity, reference_year
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company) DO UPDATE SET
			country_code = EXCLUDED.country_code,
			employee_count = EXCLUDED.employee_count,
			assets_value = EXCLUDED.assets_value,
			net_turnover = EXCLUDED.net_turnover,
			currency_code_assets = EXCLUDED.currency_code_assets,
			currency_code_turnover = EXCLUDED.currency_code_turnover,
			main_activity = EXCLUDED.main_activity,
			reference_year = EXCLUDED.reference_year,
			updated_at = now()`,
		company, info.CountryCode, info.EmployeeCount, info.AssetsValue, info.NetTurnover,
		info.CurrencyCodeAssets, info.CurrencyCodeTurnover, info.MainActivityDescription, info.ReferenceYear)
	return err
}

// ReportInfo returns the extracted figures for company, or nil when absent.
func (s *Store) ReportInfo(ctx context.Context, company string) (*models.ReportInfo, error) {
	var info models.ReportInfo
	err := s.DB.QueryRowContext(ctx, `
		SELECT country_code, employee_count, assets_value, net_turnover,
		       currency_code_assets, currency_code_turnover, main_activity, reference_year
		FROM report_info WHERE company = $1`, company,
	).Scan(&info.CountryCode, &info.EmployeeCount, &info.AssetsValue, &info.NetTurnover,
		&info.CurrencyCodeAssets, &info.CurrencyCodeTurnover, &info.MainActivityDescription, &info.ReferenceYear)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// SaveClassification upserts the NACE assignment for company.
func (s *Store) SaveClassification(ctx context.Context, company string, cls models.Classification) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE report_info SET nace_lvl1 = $2, nace_lvl2 = $3, updated_at = now() WHERE company = $1`,
		company, cls.Level1, cls.Level2)
	return err
}

// InfoRow is one exportable extraction record.
type InfoRow struct {
	Company string
	Info    models.ReportInfo
	Lvl1    *string
	Lvl2    *string
}

// InfoRow returns the extraction record for company, or nil when absent.
func (s *Store) InfoRow(ctx context.Context, company string) (*InfoRow, error) {
	var r InfoRow
	err := s.DB.QueryRowContext(ctx, `
		SELECT company, country_code, employee_count, assets_value, net_turnover,
		       currency_code_assets, currency_code_turnover, main_activity, reference_year,
		       nace_lvl1, nace_lvl2
		FROM report_info WHERE company = $1`, company,
	).Scan(&r.Company, &r.Info.CountryCode, &r.Info.EmployeeCount,
		&r.Info.AssetsValue, &r.Info.NetTurnover, &r.Info.CurrencyCodeAssets,
		&r.Info.CurrencyCodeTurnover, &r.Info.MainActivityDescription,
		&r.Info.ReferenceYear, &r.Lvl1, &r.Lvl2)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InfoRows returns all extraction records, ordered by company.
func (s *Store) InfoRows(ctx context.Context) ([]InfoRow, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT company, country_code, employee_count, assets_value, net_turnover,
		       currency_code_assets, currency_code_turnover, main_activity, reference_year,
		       nace_lvl1, nace_lvl2
		FROM report_info ORDER BY company`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InfoRow
	for rows.Next() {
		var r InfoRow
		if err := rows.Scan(&r.Company, &r.Info.CountryCode, &r.Info.EmployeeCount,
			&r.Info.AssetsValue, &r.Info.NetTurnover, &r.Info.CurrencyCodeAssets,
			&r.Info.CurrencyCodeTurnover, &r.Info.MainActivityDescription,
			&r.Info.ReferenceYear, &r.Lvl1, &r.Lvl2); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
