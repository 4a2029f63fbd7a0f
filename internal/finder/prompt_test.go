package finder

import (
	"strings"
	"testing"

	"github.com/findexa/repscout/models"
)

func TestHistoryPromptSortsByTimestamp(t *testing.T) {
	t.Parallel()
	history := []models.ActionRecord{
		{NavigationAction: models.NavigationAction{Kind: models.ActionVisit, LinkToVisit: models.Ptr("https://x/3")}, TakenAtURL: "https://third", ActionTsMs: 30},
		{NavigationAction: models.NavigationAction{Kind: models.ActionVisit, LinkToVisit: models.Ptr("https://x/1")}, TakenAtURL: "https://first", ActionTsMs: 10},
		{NavigationAction: models.NavigationAction{Kind: models.ActionBack, Note: models.Ptr("dead end")}, TakenAtURL: "https://second", ActionTsMs: 20},
	}
	prompt := historyPrompt(history, []string{"https://first", "https://second", "https://third"})

	first := strings.Index(prompt, "URL: https://first")
	second := strings.Index(prompt, "URL: https://second")
	third := strings.Index(prompt, "URL: https://third")
	if first < 0 || second < 0 || third < 0 {
		t.Fatalf("history lines missing:\n%s", prompt)
	}
	if !(first < second && second < third) {
		t.Fatalf("history not ordered by timestamp:\n%s", prompt)
	}
}

func TestHistoryPromptRendersStackAndFields(t *testing.T) {
	t.Parallel()
	history := []models.ActionRecord{
		{NavigationAction: models.NavigationAction{Kind: models.ActionVisit, LinkToVisit: models.Ptr("https://b")}, TakenAtURL: "https://a", ActionTsMs: 5},
	}
	prompt := historyPrompt(history, []string{"https://a", "https://b"})

	if !strings.Contains(prompt, "https://a->https://b") {
		t.Fatalf("navigation stack not rendered:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"action":"visit"`) {
		t.Fatalf("action kind not rendered:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"link_to_visit":"https://b"`) {
		t.Fatalf("visit target not rendered:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"action_ts_ms":5`) {
		t.Fatalf("timestamp not rendered:\n%s", prompt)
	}
	// Null fields stay visible so the oracle sees the full shape.
	if !strings.Contains(prompt, `"link":null`) {
		t.Fatalf("null fields should be rendered:\n%s", prompt)
	}
	if strings.Contains(prompt, "taken_at_url") {
		t.Fatalf("taken_at_url belongs in the line prefix, not the json:\n%s", prompt)
	}
}

func TestCrawlPromptAppendsPageLast(t *testing.T) {
	t.Parallel()
	prompt := crawlPrompt("THE PAGE BODY", nil, nil)
	if !strings.HasSuffix(strings.TrimSpace(prompt), "THE PAGE BODY") {
		t.Fatalf("page content must come last:\n%s", prompt)
	}
	for _, kind := range []string{`"action":"done"`, `"action":"visit"`, `"action":"back"`, `"action":"abort"`} {
		if !strings.Contains(prompt, kind) {
			t.Fatalf("prompt missing instruction for %s:\n%s", kind, prompt)
		}
	}
}
