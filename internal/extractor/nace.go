package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	_ "embed"

	"github.com/findexa/repscout/models"
)

//go:embed nace_data.json
var naceRaw []byte

type naceTable struct {
	Lvl1 map[string]string            `json:"lvl1"`
	Lvl2 map[string]map[string]string `json:"lvl2"`
}

var nace = mustLoadNace()

func mustLoadNace() naceTable {
	var t naceTable
	if err := json.Unmarshal(naceRaw, &t); err != nil {
		panic(fmt.Errorf("nace table: %w", err))
	}
	return t
}

type lvl1Response struct {
	Classification string `json:"classification"` // section letter, A-U
}

type lvl2Response struct {
	Classification string `json:"classification"` // two digit division code
}

// ClassifyActivity assigns a two-level NACE code from the company's activity
// description. A failed level 2 pass degrades to level 1 only.
func (e *Extractor) ClassifyActivity(ctx context.Context, company, activityDescription string) (models.Classification, error) {
	prompt := lvl1Prompt(activityDescription)
	e.appendConversation(ctx, company, conversationKindNaceClassify, prompt)

	var lvl1 lvl1Response
	if err := e.oracle.GenerateJSON(ctx, prompt, &lvl1); err != nil {
		return models.Classification{}, fmt.Errorf("nace level 1 for %s: %w", company, err)
	}
	divisions, ok := nace.Lvl2[lvl1.Classification]
	if !ok {
		return models.Classification{}, fmt.Errorf("nace level 1 for %s: model returned unknown section %q", company, lvl1.Classification)
	}
	cls := models.Classification{Level1: lvl1.Classification}
	e.appendConversation(ctx, company, conversationKindNaceClassify, "section "+lvl1.Classification)

	prompt = lvl2Prompt(activityDescription, divisions)
	e.appendConversation(ctx, company, conversationKindNaceClassify, prompt)

	var lvl2 lvl2Response
	if err := e.oracle.GenerateJSON(ctx, prompt, &lvl2); err != nil {
		e.logger.Printf("nace level 2 for %s failed, keeping level 1: %v", company, err)
		return cls, nil
	}
	if _, ok := divisions[lvl2.Classification]; !ok {
		e.logger.Printf("nace level 2 for %s returned unknown division %q, keeping level 1", company, lvl2.Classification)
		return cls, nil
	}
	cls.Level2 = lvl2.Classification
	e.appendConversation(ctx, company, conversationKindNaceClassify, "division "+lvl2.Classification)
	return cls, nil
}

func lvl1Prompt(activityDescription string) string {
	var b strings.Builder
	b.WriteString("Determine the level 1 NACE code based on the description of the company below.\n\n")
	b.WriteString("Possible NACE codes and their descriptions:\n")
	writeCodes(&b, nace.Lvl1)
	b.WriteString("\ncompany_description:\n")
	b.WriteString(activityDescription)
	return b.String()
}

func lvl2Prompt(activityDescription string, divisions map[string]string) string {
	var b strings.Builder
	b.WriteString("Now choose the level 2 NACE classification based on the description of the company's activities.\n\n")
	b.WriteString("Possible NACE codes and their descriptions:\n")
	writeCodes(&b, divisions)
	b.WriteString("\ncompany_description:\n")
	b.WriteString(activityDescription)
	return b.String()
}

func writeCodes(b *strings.Builder, codes map[string]string) {
	keys := make([]string, 0, len(codes))
	for k := range codes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %s\n", k, codes[k])
	}
}
