// Package archive keeps a searchable in-memory index of every page the
// finder rendered, so operators can inspect what the oracle actually saw.
package archive

import (
	"context"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"
)

// Page is one archived render.
type Page struct {
	Company string `json:"company"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Text    string `json:"text"`
}

// Hit is one search result.
type Hit struct {
	Company string  `json:"company"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// Archive is a mem-only bleve index over fetched pages.
type Archive struct {
	index bleve.Index
	meta  map[string]Page
	mu    sync.RWMutex
}

func New() (*Archive, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Archive{index: index, meta: make(map[string]Page)}, nil
}

// IndexPage stores one rendered page. Implements the finder's PageArchiver.
func (a *Archive) IndexPage(ctx context.Context, company, url, title, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	page := Page{Company: company, URL: url, Title: title, Text: text}
	id := uuid.NewString()
	a.meta[id] = page
	return a.index.Index(id, page)
}

// Search runs a bm25 query over archived pages and returns up to k hits.
func (a *Archive) Search(ctx context.Context, q string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	query := bleve.NewQueryStringQuery(q)
	searchReq := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := a.index.Search(searchReq)
	if err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []Hit
	for i, hit := range res.Hits {
		page := a.meta[hit.ID]
		out = append(out, Hit{
			Company: page.Company,
			URL:     page.URL,
			Title:   page.Title,
			Snippet: snippet(page.Text),
			Score:   hit.Score,
			Rank:    i + 1,
		})
	}
	return out, nil
}

func snippet(text string) string {
	const max = 240
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
