package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jadenpxrk/monofile/pkg/source"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// isWebURL checks if the input string is an HTTP/HTTPS URL.
func isWebURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// webFetcher turns pages into markdown loose files, optionally following links.
type webFetcher struct {
	client   *http.Client
	maxDepth int
	visited  map[string]bool
}

func newWebFetcher(maxDepth int) *webFetcher {
	return &webFetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxDepth: maxDepth,
		visited:  make(map[string]bool),
	}
}

// fetch processes startURL and, while depth < maxDepth, every http(s) link on it.
// Pages that fail are logged and skipped.
func (w *webFetcher) fetch(ctx context.Context, startURL string, depth int) (source.LooseFiles, error) {
	parsed, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL %s: %w", startURL, err)
	}
	parsed.Fragment = ""
	clean := parsed.String()

	if depth > w.maxDepth || w.visited[clean] {
		return nil, nil
	}
	w.visited[clean] = true
	logger.Info("Processing web URL", zap.String("url", clean), zap.Int("depth", depth))

	body, err := w.get(ctx, clean)
	if err != nil {
		logger.Warn("Skipping web URL", zap.String("url", clean), zap.Error(err))
		return nil, nil
	}

	var files source.LooseFiles
	if page, err := pageToMarkdown(parsed, body); err != nil {
		logger.Warn("Failed to convert HTML to Markdown", zap.String("url", clean), zap.Error(err))
	} else {
		files = append(files, &source.MemFile{FileName: path.Base(pagePath(parsed)), Hint: pagePath(parsed), Data: []byte(page)})
	}

	if depth < w.maxDepth {
		for _, link := range extractLinks(parsed, body) {
			if err := ctx.Err(); err != nil {
				return files, err
			}
			linked, err := w.fetch(ctx, link, depth+1)
			if err != nil {
				return files, err
			}
			files = append(files, linked...)
		}
	}
	return files, nil
}

func (w *webFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("status code %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.Contains(strings.ToLower(ct), "text/html") {
		return nil, fmt.Errorf("non-HTML content type %q", ct)
	}
	return io.ReadAll(res.Body)
}

// pageToMarkdown extracts the main article when readability finds one and converts it to markdown.
func pageToMarkdown(pageURL *url.URL, body []byte) (string, error) {
	html := string(body)
	title := ""
	parser := readability.NewParser()
	if article, err := parser.Parse(bytes.NewReader(body), pageURL); err == nil && strings.TrimSpace(article.Content) != "" {
		html = article.Content
		title = strings.TrimSpace(article.Title)
	}

	converter := md.NewConverter(pageURL.Host, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", err
	}
	if title != "" && !strings.HasPrefix(markdown, "# ") {
		markdown = "# " + title + "\n\n" + markdown
	}
	return markdown, nil
}

// extractLinks returns the absolute http(s) links of a page in document order.
func extractLinks(base *url.URL, body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme == "http" || resolved.Scheme == "https" {
			resolved.Fragment = ""
			links = append(links, resolved.String())
		}
	})
	return links
}

// pagePath maps a URL to a record path like example.com/docs/intro.md.
func pagePath(u *url.URL) string {
	p := strings.Trim(u.Path, "/")
	switch {
	case p == "":
		p = "index"
	case strings.HasSuffix(p, ".html"), strings.HasSuffix(p, ".htm"):
		p = strings.TrimSuffix(strings.TrimSuffix(p, ".html"), ".htm")
	}
	return u.Host + "/" + p + ".md"
}
