package finder

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/findexa/repscout/models"
)

// historyAction is the action as rendered into the prompt: the decision
// fields plus its timestamp, null fields included, taken_at_url excluded
// (it prefixes the line instead).
type historyAction struct {
	Action        models.ActionKind `json:"action"`
	Link          *string           `json:"link"`
	LinkToVisit   *string           `json:"link_to_visit"`
	ReferenceYear *string           `json:"reference_year"`
	Error         *string           `json:"error"`
	Note          *string           `json:"note"`
	ActionTsMs    int64             `json:"action_ts_ms"`
}

// historyPrompt renders the navigation stack and every action taken so far.
// History is sorted ascending by decision timestamp; the oracle relies on
// that ordering to understand what has already been tried.
func historyPrompt(history []models.ActionRecord, urlStack []string) string {
	var b strings.Builder
	b.WriteString("Here is your current navigation stack:\n")
	b.WriteString(strings.Join(urlStack, "->"))
	b.WriteString("\nHere are the actions you have taken so far:\n")

	sorted := make([]models.ActionRecord, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ActionTsMs < sorted[j].ActionTsMs })

	for _, rec := range sorted {
		line, err := json.Marshal(historyAction{
			Action:        rec.Kind,
			Link:          rec.Link,
			LinkToVisit:   rec.LinkToVisit,
			ReferenceYear: rec.ReferenceYear,
			Error:         rec.Error,
			Note:          rec.Note,
			ActionTsMs:    rec.ActionTsMs,
		})
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "URL: %s, Action: %s\n", rec.TakenAtURL, line)
	}
	return b.String()
}

// crawlPrompt builds the full decision prompt for one page.
func crawlPrompt(webpageMarkdown string, history []models.ActionRecord, urlStack []string) string {
	return fmt.Sprintf(`Extract the direct link to the latest annual financial report (pdf if available, only stop at html for private companies) from the markdownified webpage below.

If you found it, output: {"action":"done", "link":"link goes here", "reference_year":"YYYY-MM-DD"}.

If you did not find a direct link, but think one of the links will lead there, output: {"action":"visit", "link_to_visit":"link goes here"}

If you visited a link, but it did not lead you where you expected, you can choose to go back by outputting {"action":"back", "note":"very brief message about what you found (2 sentences max)"}

If you think there is a problem or there is no chance of finding the annual report on this page, output {"action":"abort", "error":"error message here"}

%s

webpage:
%s`, historyPrompt(history, urlStack), webpageMarkdown)
}
