package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ActionKind is the decision emitted by the oracle for one page.
type ActionKind string

const (
	ActionDone  ActionKind = "done"
	ActionVisit ActionKind = "visit"
	ActionBack  ActionKind = "back"
	ActionAbort ActionKind = "abort"
)

var (
	// ErrSiteNotFound is returned when no site record exists for a company.
	ErrSiteNotFound = errors.New("site not found")
	// ErrReportNotFound is returned when no report link is stored for a company.
	ErrReportNotFound = errors.New("report link not found")
	// ErrProtocolViolation marks an oracle response that breaks the action contract.
	ErrProtocolViolation = errors.New("oracle protocol violation")
)

// NavigationAction is the structured decision returned by the oracle.
// Exactly the fields relevant to Kind may be populated; Validate enforces it.
type NavigationAction struct {
	Kind          ActionKind `json:"action"`
	Link          *string    `json:"link,omitempty"`           // done: resolved report url
	LinkToVisit   *string    `json:"link_to_visit,omitempty"`  // visit: next url to fetch
	ReferenceYear *string    `json:"reference_year,omitempty"` // done: YYYY-MM-DD or bare year
	Error         *string    `json:"error,omitempty"`          // abort: reason
	Note          *string    `json:"note,omitempty"`           // back: page summary
}

// Validate checks the per-kind field invariant.
func (a NavigationAction) Validate() error {
	switch a.Kind {
	case ActionDone:
		if a.LinkToVisit != nil || a.Error != nil || a.Note != nil {
			return fmt.Errorf("%w: done action carries fields of another kind", ErrProtocolViolation)
		}
	case ActionVisit:
		if a.LinkToVisit == nil || strings.TrimSpace(*a.LinkToVisit) == "" {
			return fmt.Errorf("%w: visit action taken with no url to visit", ErrProtocolViolation)
		}
		if a.Link != nil || a.ReferenceYear != nil || a.Error != nil || a.Note != nil {
			return fmt.Errorf("%w: visit action carries fields of another kind", ErrProtocolViolation)
		}
	case ActionBack:
		if a.Link != nil || a.LinkToVisit != nil || a.ReferenceYear != nil || a.Error != nil {
			return fmt.Errorf("%w: back action carries fields of another kind", ErrProtocolViolation)
		}
	case ActionAbort:
		if a.Link != nil || a.LinkToVisit != nil || a.ReferenceYear != nil || a.Note != nil {
			return fmt.Errorf("%w: abort action carries fields of another kind", ErrProtocolViolation)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrProtocolViolation, a.Kind)
	}
	return nil
}

// ActionRecord is a NavigationAction plus where and when it was decided.
// Immutable once written to the ledger.
type ActionRecord struct {
	NavigationAction
	TakenAtURL string `json:"taken_at_url"`
	ActionTsMs int64  `json:"action_ts_ms"`
}

// IsFinal reports whether this record terminates a company's crawl.
func (r ActionRecord) IsFinal() bool {
	return r.Kind == ActionDone || r.Kind == ActionAbort
}

// ReportLink is the resolved annual report plus its reference year.
type ReportLink struct {
	Link    *string `json:"link"`
	RefYear *int    `json:"refyear"`
}

// ReportFile extends ReportLink with locations of the downloaded document.
type ReportFile struct {
	ReportLink
	LocalPath *string `json:"local_path,omitempty"`
}

// SiteInfo holds the known web entry points for a company.
type SiteInfo struct {
	OfficialWebsiteLink   *string `json:"official_website_link"`
	InvestorRelationsPage *string `json:"investor_relations_page"`
}

// ReportInfo holds figures extracted from an annual report.
type ReportInfo struct {
	CountryCode             *string `json:"country_code"`
	EmployeeCount           *int64  `json:"employee_count"`
	AssetsValue             *int64  `json:"assets_value"`
	NetTurnover             *int64  `json:"net_turnover"`
	CurrencyCodeAssets      *string `json:"currency_code_assets"`
	CurrencyCodeTurnover    *string `json:"currency_code_turnover"`
	MainActivityDescription *string `json:"main_activity_description"`
	ReferenceYear           *int    `json:"reference_year"`
}

// Classification is a two-level NACE assignment for a company.
type Classification struct {
	Level1 string `json:"level1"` // single letter, A-U
	Level2 string `json:"level2"` // two digit code within level1
}

// ParseReferenceYear extracts the year component from an oracle date.
// Accepts a bare "2023" or a full "2023-12-31"; nil passes through.
func ParseReferenceYear(ref *string) (*int, error) {
	if ref == nil {
		return nil, nil
	}
	head, _, _ := strings.Cut(*ref, "-")
	year, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return nil, fmt.Errorf("%w: unparsable reference year %q", ErrProtocolViolation, *ref)
	}
	return &year, nil
}

// Ptr is a convenience for building optional fields.
func Ptr[T any](v T) *T { return &v }
