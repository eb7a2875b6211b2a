// Package fetch downloads guide pages and reduces them to plain text
// suitable for chunking. Failures are isolated per URL: one bad guide
// never blocks the rest of a batch.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// RawDocument is one fetched guide page. It is consumed once by the
// chunker and not retained afterwards.
type RawDocument struct {
	URL  string
	Text string
}

// Fetcher downloads guide pages over plain HTTP.
type Fetcher struct {
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// New creates a Fetcher. A zero timeout defaults to 30 seconds.
func New(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = "tripnexus/0.1"
	}
	return &Fetcher{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    slog.Default(),
	}
}

// FetchAll downloads every valid URL in the list. Invalid URLs and fetch
// failures are logged and skipped; the remaining documents are returned.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []RawDocument {
	var docs []RawDocument
	for _, u := range urls {
		if !ValidURL(u) {
			f.logger.Warn("skipping invalid guide URL", "url", u)
			continue
		}
		doc, err := f.fetch(ctx, u)
		if err != nil {
			f.logger.Warn("guide fetch failed, skipping", "url", u, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func (f *Fetcher) fetch(ctx context.Context, u string) (RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return RawDocument{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return RawDocument{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RawDocument{}, fmt.Errorf("fetch: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawDocument{}, err
	}
	return RawDocument{URL: u, Text: ExtractText(string(body))}, nil
}

// ValidURL reports whether s parses as an absolute http(s) URL.
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Tags whose subtrees carry no guide content.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"header":   true,
	"footer":   true,
	"nav":      true,
	"iframe":   true,
}

// Class substrings that mark advertising or promotional blocks.
var adClassFragments = []string{"ad-", "ads", "promotion", "banner"}

// ExtractText strips markup from an HTML page, drops script/style/nav
// subtrees and ad-marked blocks, and collapses whitespace.
func ExtractText(page string) string {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		// Not parseable as HTML; treat the input as plain text.
		return strings.Join(strings.Fields(page), " ")
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] || hasAdClass(n) {
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(strings.Fields(b.String()), " ")
}

func hasAdClass(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		class := strings.ToLower(attr.Val)
		for _, frag := range adClassFragments {
			if strings.Contains(class, frag) {
				return true
			}
		}
	}
	return false
}
