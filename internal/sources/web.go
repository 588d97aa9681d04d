package sources

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kgpack/internal/core"
	"kgpack/internal/security"
)

// WebSource fetches and extracts prose content from arbitrary web
// pages, subject to the SSRF guard in internal/security.
type WebSource struct {
	UserAgent       string
	Timeout         time.Duration
	RateLimitDelay  time.Duration
	MinSectionChars int
	MinWordCount    int
	AllowedSchemes  []string

	httpClient *http.Client
}

// NewWebSource constructs a WebSource with sane defaults for any
// zero-valued field except rateLimitDelay, which is kept as given.
func NewWebSource(userAgent string, timeout, rateLimitDelay time.Duration, minSectionChars, minWordCount int, allowedSchemes []string) *WebSource {
	if userAgent == "" {
		userAgent = "kgpack/1.0"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if minSectionChars <= 0 {
		minSectionChars = 100
	}
	if minWordCount <= 0 {
		minWordCount = 200
	}
	if len(allowedSchemes) == 0 {
		allowedSchemes = []string{"http", "https"}
	}
	return &WebSource{
		UserAgent:       userAgent,
		Timeout:         timeout,
		RateLimitDelay:  rateLimitDelay,
		MinSectionChars: minSectionChars,
		MinWordCount:    minWordCount,
		AllowedSchemes:  allowedSchemes,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// ErrThinContent is returned when a fetched page's extracted prose
// falls below MinWordCount.
var ErrThinContent = fmt.Errorf("sources: content too thin to ingest")

// FetchArticle validates rawURL against the SSRF guard, fetches it,
// and converts the body to prose plus extracted links.
func (w *WebSource) FetchArticle(ctx context.Context, rawURL string) (core.SourceArticle, error) {
	if err := security.ValidateURL(rawURL); err != nil {
		return core.SourceArticle{}, fmt.Errorf("sources: %w", err)
	}

	var body string
	do := func() error {
		// Revalidate immediately before the request: DNS can change
		// between submission and dispatch.
		if err := security.ValidateURL(rawURL); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", w.UserAgent)

		resp, err := w.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return ErrArticleNotFound
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return &httpStatusError{status: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("sources: web fetch %s returned status %d", rawURL, resp.StatusCode)
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return fmt.Errorf("sources: parsing HTML from %s: %w", rawURL, err)
		}
		var sb strings.Builder
		renderProse(doc.Selection, &sb)
		body = sb.String()
		return nil
	}

	cfg := retryConfig{maxRetries: 3, initialDelay: time.Second, multiplier: 2.0, maxDelay: 16 * time.Second}
	classify := func(err error) bool {
		var hse *httpStatusError
		if !asHTTPStatusError(err, &hse) {
			return false
		}
		if hse.status == http.StatusTooManyRequests && w.RateLimitDelay > 0 {
			cfg.initialDelay = w.RateLimitDelay
		}
		return true
	}
	if err := retryWithBackoff(ctx, cfg, classify, do); err != nil {
		if isArticleNotFound(err) {
			return core.SourceArticle{}, ErrArticleNotFound
		}
		return core.SourceArticle{}, err
	}

	if wordCount(body) < w.MinWordCount {
		return core.SourceArticle{}, ErrThinContent
	}

	title := pageTitle(rawURL, body)
	return core.SourceArticle{
		Title:      title,
		Content:    body,
		Links:      w.getLinksFromURL(rawURL, body),
		Categories: nil,
		SourceURL:  rawURL,
		SourceType: core.SourceWeb,
	}, nil
}

// ParseSections splits markdown-like prose (as produced by
// renderProse) on heading lines, dropping sections shorter than
// MinSectionChars.
func (w *WebSource) ParseSections(content string) []core.ParsedSection {
	lines := strings.Split(content, "\n")
	var sections []core.ParsedSection
	var cur *core.ParsedSection
	flush := func() {
		if cur == nil {
			return
		}
		body := strings.TrimSpace(cur.Content)
		if len(body) >= w.MinSectionChars {
			cur.Content = body
			sections = append(sections, *cur)
		}
	}

	for _, line := range lines {
		if m := reMarkdownHeading.FindStringSubmatch(line); m != nil {
			flush()
			level := len(m[1])
			cur = &core.ParsedSection{Title: strings.TrimSpace(m[2]), Level: level}
			continue
		}
		if cur == nil {
			cur = &core.ParsedSection{Title: "", Level: 0}
		}
		cur.Content += line + "\n"
	}
	flush()
	return sections
}

// GetLinks returns the raw href targets of the link markers that
// renderProse embeds in content, unresolved and unfiltered. FetchArticle
// instead uses getLinksFromURL, which resolves them against the page URL
// and keeps same-host links only.
func (w *WebSource) GetLinks(content string) []string {
	var out []string
	for _, m := range reLinkPlaceholder.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	return out
}

func (w *WebSource) getLinksFromURL(rawURL, renderedWithLinks string) []string {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, target := range w.GetLinks(renderedWithLinks) {
		u, err := url.Parse(target)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(u)
		if resolved.Hostname() != base.Hostname() {
			continue
		}
		resolved.Fragment = ""
		s := resolved.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

var (
	reMarkdownHeading = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reLinkPlaceholder = regexp.MustCompile(`\(link:([^)]+)\)`)
)

var stripSelectors = "script, style, nav, footer, header, aside, form, iframe, noscript"

// renderProse walks the document body converting headings, paragraphs,
// lists, and code blocks into markdown-like prose with embedded
// `(link:URL)` markers after anchor text, the same convention
// GetLinks/getLinksFromURL expect.
func renderProse(doc *goquery.Selection, sb *strings.Builder) {
	root := doc
	if body := doc.Find("body"); body.Length() > 0 {
		root = body
	}
	clone := root.Clone()
	clone.Find(stripSelectors).Remove()

	clone.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		s.SetText(strings.TrimSpace(s.Text()) + fmt.Sprintf(" (link:%s)", href))
	})

	clone.Find("h1,h2,h3,h4,h5,h6,p,li,pre,blockquote").Each(func(_ int, s *goquery.Selection) {
		text := html.UnescapeString(strings.TrimSpace(s.Text()))
		if text == "" {
			return
		}
		switch goquery.NodeName(s) {
		case "h1":
			sb.WriteString("# " + text + "\n\n")
		case "h2":
			sb.WriteString("## " + text + "\n\n")
		case "h3":
			sb.WriteString("### " + text + "\n\n")
		case "h4", "h5", "h6":
			sb.WriteString("#### " + text + "\n\n")
		case "li":
			sb.WriteString("- " + text + "\n")
		case "pre":
			sb.WriteString("```\n" + text + "\n```\n\n")
		default:
			sb.WriteString(text + "\n\n")
		}
	})
}

func wordCount(s string) int {
	clean := reLinkPlaceholder.ReplaceAllString(s, "")
	return len(strings.Fields(clean))
}

func pageTitle(rawURL, body string) string {
	for _, line := range strings.Split(body, "\n") {
		if m := reMarkdownHeading.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[2])
		}
	}
	return rawURL
}
