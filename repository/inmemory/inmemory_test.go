package inmemory

import (
	"context"
	"errors"
	"testing"

	"github.com/findexa/repscout/models"
)

func TestLedgerStackAndDoneMarker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ledger := NewLedger()

	visit := models.ActionRecord{
		NavigationAction: models.NavigationAction{Kind: models.ActionVisit, LinkToVisit: models.Ptr("https://acme.example/ir")},
		TakenAtURL:       "https://acme.example",
		ActionTsMs:       1,
	}
	done := models.ActionRecord{
		NavigationAction: models.NavigationAction{Kind: models.ActionDone, Link: models.Ptr("https://acme.example/ar.pdf")},
		TakenAtURL:       "https://acme.example/ir",
		ActionTsMs:       2,
	}

	if err := ledger.StoreAction(ctx, "ACME", "https://acme.example", visit, false); err != nil {
		t.Fatalf("StoreAction: %v", err)
	}
	if err := ledger.StoreAction(ctx, "ACME", "https://acme.example/ir", done, true); err != nil {
		t.Fatalf("StoreAction: %v", err)
	}

	cur, err := ledger.CurrentURL(ctx, "ACME")
	if err != nil {
		t.Fatalf("CurrentURL: %v", err)
	}
	if cur != "https://acme.example/ir" {
		t.Fatalf("CurrentURL got %q", cur)
	}

	queue, err := ledger.FullURLQueue(ctx, "ACME")
	if err != nil {
		t.Fatalf("FullURLQueue: %v", err)
	}
	if len(queue) != 2 || queue[0] != "https://acme.example" || queue[1] != "https://acme.example/ir" {
		t.Fatalf("FullURLQueue got %v", queue)
	}

	marker, err := ledger.DoneAction(ctx, "ACME")
	if err != nil {
		t.Fatalf("DoneAction: %v", err)
	}
	if marker == nil || marker.Kind != models.ActionDone || *marker.Link != "https://acme.example/ar.pdf" {
		t.Fatalf("DoneAction got %+v", marker)
	}

	all, err := ledger.AllActions(ctx, "ACME")
	if err != nil {
		t.Fatalf("AllActions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("AllActions got %d records, want 2", len(all))
	}

	if err := ledger.DeleteAll(ctx, "ACME"); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	marker, err = ledger.DoneAction(ctx, "ACME")
	if err != nil || marker != nil {
		t.Fatalf("DoneAction after reset got %+v, %v", marker, err)
	}
	cur, err = ledger.CurrentURL(ctx, "ACME")
	if err != nil || cur != "" {
		t.Fatalf("CurrentURL after reset got %q, %v", cur, err)
	}
}

func TestLedgerIsolatedPerCompany(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ledger := NewLedger()
	rec := models.ActionRecord{
		NavigationAction: models.NavigationAction{Kind: models.ActionAbort, Error: models.Ptr("dead end")},
		TakenAtURL:       "https://a.example",
		ActionTsMs:       1,
	}
	if err := ledger.StoreAction(ctx, "A", "https://a.example", rec, true); err != nil {
		t.Fatalf("StoreAction: %v", err)
	}
	marker, err := ledger.DoneAction(ctx, "B")
	if err != nil || marker != nil {
		t.Fatalf("company B should be untouched, got %+v, %v", marker, err)
	}
}

func TestSiteStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sites := NewSiteStore()

	if _, err := sites.GetSite(ctx, "ACME"); !errors.Is(err, models.ErrSiteNotFound) {
		t.Fatalf("GetSite on empty store: want ErrSiteNotFound, got %v", err)
	}

	site := models.SiteInfo{
		OfficialWebsiteLink:   models.Ptr("https://acme.example"),
		InvestorRelationsPage: models.Ptr("https://acme.example/ir"),
	}
	if err := sites.SaveSite(ctx, "ACME", site); err != nil {
		t.Fatalf("SaveSite: %v", err)
	}
	got, err := sites.GetSite(ctx, "ACME")
	if err != nil {
		t.Fatalf("GetSite: %v", err)
	}
	if *got.InvestorRelationsPage != "https://acme.example/ir" {
		t.Fatalf("GetSite got %+v", got)
	}

	companies, err := sites.Companies(ctx)
	if err != nil {
		t.Fatalf("Companies: %v", err)
	}
	if len(companies) != 1 || companies[0] != "ACME" {
		t.Fatalf("Companies got %v", companies)
	}
}

func TestConversationStoreAppendOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	convos := NewConversationStore()
	for _, msg := range []string{"first", "second", "third"} {
		if err := convos.AppendConversation(ctx, "ACME", "report_find", msg); err != nil {
			t.Fatalf("AppendConversation: %v", err)
		}
	}
	history, err := convos.Conversation(ctx, "ACME", "report_find")
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(history) != 3 || history[0] != "first" || history[2] != "third" {
		t.Fatalf("Conversation got %v", history)
	}
}
