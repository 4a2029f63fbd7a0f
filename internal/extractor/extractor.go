// Package extractor pulls financial figures out of downloaded annual reports
// and classifies each company against the NACE activity taxonomy.
package extractor

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/findexa/repscout/internal/store"
	"github.com/findexa/repscout/internal/telemetry"
	"github.com/findexa/repscout/models"
	"github.com/findexa/repscout/provider"
	"github.com/findexa/repscout/repository"
	"github.com/findexa/repscout/utils"
)

const (
	conversationKindInfoExtract  = "info_extract"
	conversationKindNaceClassify = "nace_classify"

	// maxReportChars bounds how much report text is inlined into the prompt.
	maxReportChars = 400000
)

// ReportSource is the results-store surface the pipeline needs. Implemented
// by the Postgres store.
type ReportSource interface {
	CompaniesWithLinks(ctx context.Context) ([]string, error)
	ReportRow(ctx context.Context, company string) (*store.ReportRow, error)
	ReportInfo(ctx context.Context, company string) (*models.ReportInfo, error)
	SaveReportInfo(ctx context.Context, company string, info models.ReportInfo) error
	SaveClassification(ctx context.Context, company string, cls models.Classification) error
}

// Extractor runs the figure-extraction and classification pipeline over
// companies with resolved report links.
type Extractor struct {
	oracle provider.Oracle
	store  ReportSource
	convos repository.ConversationStore
	logger *log.Logger

	concurrentThreads int
}

func New(oracle provider.Oracle, st ReportSource, convos repository.ConversationStore, concurrentThreads int) (*Extractor, error) {
	if concurrentThreads < 1 {
		return nil, fmt.Errorf("concurrent_threads must be >= 1, got %d", concurrentThreads)
	}
	return &Extractor{
		oracle:            oracle,
		store:             st,
		convos:            convos,
		logger:            telemetry.NewLogger("EXTRACTOR"),
		concurrentThreads: concurrentThreads,
	}, nil
}

// Run extracts figures for every company with a resolved link, batched by
// concurrentThreads. Companies with existing extractions are skipped.
func (e *Extractor) Run(ctx context.Context) error {
	companies, err := e.store.CompaniesWithLinks(ctx)
	if err != nil {
		return fmt.Errorf("listing companies: %w", err)
	}
	for _, batch := range utils.Batched(companies, e.concurrentThreads) {
		var wg sync.WaitGroup
		for _, company := range batch {
			company := company
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := e.ProcessCompany(ctx, company); err != nil {
					e.logger.Printf("extraction for %s failed: %v", company, err)
				}
			}()
		}
		wg.Wait()
	}
	return nil
}

// ProcessCompany extracts figures from one company's report, preferring the
// downloaded copy over the remote link, and classifies the activity.
func (e *Extractor) ProcessCompany(ctx context.Context, company string) error {
	existing, err := e.store.ReportInfo(ctx, company)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	row, err := e.store.ReportRow(ctx, company)
	if err != nil {
		return err
	}
	if row == nil || row.Link == nil {
		e.logger.Printf("annual report link missing for %s, skipping extraction", company)
		return nil
	}

	info, err := e.ExtractReportInfo(ctx, company, *row)
	if err != nil {
		return err
	}
	if err := e.store.SaveReportInfo(ctx, company, info); err != nil {
		return err
	}

	if info.MainActivityDescription == nil {
		e.logger.Printf("no main activity description for %s, skipping classification", company)
		return nil
	}
	cls, err := e.ClassifyActivity(ctx, company, *info.MainActivityDescription)
	if err != nil {
		e.logger.Printf("classification for %s failed: %v", company, err)
		return nil
	}
	return e.store.SaveClassification(ctx, company, cls)
}

// ExtractReportInfo asks the oracle for the structured figures. The report is
// inlined when an HTML copy exists locally; otherwise the oracle is pointed
// at the remote link.
func (e *Extractor) ExtractReportInfo(ctx context.Context, company string, row store.ReportRow) (models.ReportInfo, error) {
	prompt := extractionPrompt(row)
	e.appendConversation(ctx, company, conversationKindInfoExtract, prompt)

	var info models.ReportInfo
	if err := e.oracle.GenerateJSON(ctx, prompt, &info); err != nil {
		return models.ReportInfo{}, fmt.Errorf("extracting figures for %s: %w", company, err)
	}
	return info, nil
}

func extractionPrompt(row store.ReportRow) string {
	var b strings.Builder
	b.WriteString("Extract the relevant financial data from the annual report below.\n\n")
	b.WriteString("Notes:\n")
	b.WriteString("- Extract asset values and net turnover in their most expanded integer form. If the report specifies them in thousands or millions, input the full value.\n")
	b.WriteString("- Similarly for employee count, extract the expanded integer form.\n")
	b.WriteString("- Only extract information you explicitly found in the document, base your answer on facts.\n")
	b.WriteString("- Avoid repeating marketing copy when summarizing the main activity. Collect the main industries and sectors the company participates in, ordered by priority where possible.\n\n")

	if row.LocalPath != nil && strings.HasSuffix(*row.LocalPath, ".html") {
		if data, err := os.ReadFile(*row.LocalPath); err == nil {
			text := string(data)
			if len(text) > maxReportChars {
				text = text[:maxReportChars]
			}
			b.WriteString("report:\n")
			b.WriteString(text)
			return b.String()
		}
	}
	fmt.Fprintf(&b, "You can find the report at %s, use your tools to view the file content. Do not answer without it.\n", *row.Link)
	return b.String()
}

func (e *Extractor) appendConversation(ctx context.Context, company, kind, content string) {
	if err := e.convos.AppendConversation(ctx, company, kind, content); err != nil {
		e.logger.Printf("storing conversation for %s failed: %v", company, err)
	}
}
