package chromedp

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/findexa/repscout/tools/web_fetch/models"
	"github.com/go-shiori/go-readability"
)

type Fetch struct {
	Timeout  time.Duration // Per-page render deadline
	MaxChars int           // Maximum characters of markdown to return
}

func (f Fetch) Exec(ctx context.Context, rawURL string) (models.Result, error) {
	if strings.TrimSpace(rawURL) == "" {
		return models.Result{}, errors.New("invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	// Headless browsing
	html, err := fetchHTML(ctx, rawURL)
	if err != nil {
		return models.Result{URL: rawURL, Status: 599, RenderMS: int(time.Since(t0) / time.Millisecond)}, nil
	}

	pageURL := mustParseURL(rawURL)
	html = absolutizeLinks(html, pageURL)

	// Main-content extraction, then markdown conversion. The oracle needs
	// visitable absolute links, so conversion keeps anchors as-is.
	body := html
	title := ""
	if article, err := readability.FromReader(strings.NewReader(html), pageURL); err == nil && strings.TrimSpace(article.Content) != "" {
		body = article.Content
		title = strings.TrimSpace(article.Title)
	}
	markdown, err := toMarkdown(body)
	if err != nil {
		return models.Result{URL: rawURL, Status: 200, RenderMS: int(time.Since(t0) / time.Millisecond)}, nil
	}
	if len(markdown) > f.MaxChars {
		markdown = markdown[:f.MaxChars]
	}

	sum := sha1.Sum([]byte(html))

	return models.Result{
		URL:      rawURL,
		Title:    title,
		Markdown: strings.TrimSpace(markdown),
		HTMLHash: hex.EncodeToString(sum[:]),
		Success:  true,
		Status:   200,
		RenderMS: int(time.Since(t0) / time.Millisecond),
	}, nil
}

func fetchHTML(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent("repscout/1.0 (+contact@findexa.example)"),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

// absolutizeLinks rewrites relative hrefs against the page URL so the oracle
// can emit them directly as visit targets.
func absolutizeLinks(html string, pageURL *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || ref.IsAbs() {
			return
		}
		sel.SetAttr("href", pageURL.ResolveReference(ref).String())
	})
	out, err := doc.Html()
	if err != nil {
		return html
	}
	return out
}

func toMarkdown(html string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return conv.ConvertString(html)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
