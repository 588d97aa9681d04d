package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"kgpack/internal/core"
)

// WikipediaSource fetches articles from the Wikipedia Action API's
// `parse` endpoint and parses the returned wikitext.
type WikipediaSource struct {
	BaseURL        string
	UserAgent      string
	RateLimitDelay time.Duration
	MaxRetries     int
	Timeout        time.Duration

	httpClient *http.Client
	lastReqMu  sync.Mutex
	lastReq    time.Time
}

// NewWikipediaSource constructs a WikipediaSource with sane defaults
// for any zero-valued field.
func NewWikipediaSource(baseURL, userAgent string, rateLimitDelay time.Duration, maxRetries int, timeout time.Duration) *WikipediaSource {
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org/w/api.php"
	}
	if userAgent == "" {
		userAgent = "kgpack/1.0"
	}
	if rateLimitDelay <= 0 {
		rateLimitDelay = 100 * time.Millisecond
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WikipediaSource{
		BaseURL:        baseURL,
		UserAgent:      userAgent,
		RateLimitDelay: rateLimitDelay,
		MaxRetries:     maxRetries,
		Timeout:        timeout,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

type wikipediaParseResponse struct {
	Parse *struct {
		Title string `json:"title"`
		Wikitext struct {
			Value string `json:"*"`
		} `json:"wikitext"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

func (w *WikipediaSource) waitForRateLimit() {
	w.lastReqMu.Lock()
	defer w.lastReqMu.Unlock()
	if wait := w.RateLimitDelay - time.Since(w.lastReq); wait > 0 {
		time.Sleep(wait)
	}
	w.lastReq = time.Now()
}

// httpStatusError carries an HTTP status that the retry classifiers treat as retryable:
// 5xx always, 429 subject to the rate-limit-delay backoff base.
type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string { return fmt.Sprintf("http status %d", e.status) }

// FetchArticle calls the Wikipedia `parse` action for titleOrURL
// (treated as a page title) and returns its raw wikitext plus the
// links and categories extracted from it.
func (w *WikipediaSource) FetchArticle(ctx context.Context, titleOrURL string) (core.SourceArticle, error) {
	var body []byte

	do := func() error {
		w.waitForRateLimit()
		req, err := w.buildRequest(ctx, titleOrURL)
		if err != nil {
			return err
		}
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
			return fmt.Errorf("sources: wikipedia API returned status %d", resp.StatusCode)
		}

		b := make([]byte, 0)
		buf := make([]byte, 32*1024)
		for {
			n, rerr := resp.Body.Read(buf)
			if n > 0 {
				b = append(b, buf[:n]...)
			}
			if rerr != nil {
				break
			}
		}
		body = b
		return nil
	}

	cfg := retryConfig{
		maxRetries:   w.MaxRetries,
		initialDelay: time.Second,
		multiplier:   2.0,
		maxDelay:     16 * time.Second,
	}
	classify := func(err error) bool {
		var hse *httpStatusError
		if !asHTTPStatusError(err, &hse) {
			return false
		}
		if hse.status == http.StatusTooManyRequests {
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

	var parsed wikipediaParseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return core.SourceArticle{}, fmt.Errorf("sources: decoding wikipedia response: %w", err)
	}
	if parsed.Error != nil {
		if parsed.Error.Code == "missingtitle" {
			return core.SourceArticle{}, ErrArticleNotFound
		}
		return core.SourceArticle{}, fmt.Errorf("sources: wikipedia API error %s: %s", parsed.Error.Code, parsed.Error.Info)
	}
	if parsed.Parse == nil {
		return core.SourceArticle{}, ErrArticleNotFound
	}

	raw := parsed.Parse.Wikitext.Value
	return core.SourceArticle{
		Title:      parsed.Parse.Title,
		Content:    raw,
		Links:      w.GetLinks(raw),
		Categories: extractCategories(raw),
		SourceURL:  w.articleURL(parsed.Parse.Title),
		SourceType: core.SourceWikipedia,
	}, nil
}

func (w *WikipediaSource) buildRequest(ctx context.Context, title string) (*http.Request, error) {
	q := url.Values{}
	q.Set("action", "parse")
	q.Set("page", title)
	q.Set("prop", "wikitext")
	q.Set("format", "json")
	q.Set("redirects", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", w.UserAgent)
	return req, nil
}

func (w *WikipediaSource) articleURL(title string) string {
	return "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

func isArticleNotFound(err error) bool {
	return err == ErrArticleNotFound || strings.Contains(err.Error(), ErrArticleNotFound.Error())
}

func asHTTPStatusError(err error, target **httpStatusError) bool {
	if hse, ok := err.(*httpStatusError); ok {
		*target = hse
		return true
	}
	return false
}

var (
	reTemplate     = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	reRef          = regexp.MustCompile(`(?s)<ref[^>]*>.*?</ref>`)
	reSelfCloseRef = regexp.MustCompile(`<ref[^>]*/>`)
	reFileLink     = regexp.MustCompile(`(?i)\[\[(File|Image):[^\]]*\]\]`)
	rePipedLink    = regexp.MustCompile(`\[\[([^\]|]+)\|([^\]]+)\]\]`)
	reBareLink     = regexp.MustCompile(`\[\[([^\]|]+)\]\]`)
	reTag          = regexp.MustCompile(`(?s)<[^>]+>`)
	reWhitespace   = regexp.MustCompile(`[ \t]+`)
	reBlankLines   = regexp.MustCompile(`\n{3,}`)
	reCategory     = regexp.MustCompile(`(?i)\[\[Category:([^\]|]+)`)
	reHeading      = regexp.MustCompile(`(?m)^(={2,6})\s*(.+?)\s*={2,6}\s*$`)
)

// ParseSections strips Wikipedia markup down to plain prose, then
// splits the result on `== Heading ==` style section markers.
func (w *WikipediaSource) ParseSections(content string) []core.ParsedSection {
	clean := cleanWikitext(content)
	return splitWikiSections(clean)
}

// GetLinks extracts `[[Target]]` / `[[Target|label]]` wikilinks,
// restricted to the main namespace (no ':' prefix other than
// Category, which is handled separately as a category, not a link).
func (w *WikipediaSource) GetLinks(content string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(target string) {
		target = strings.TrimSpace(strings.SplitN(target, "#", 2)[0])
		if target == "" || strings.Contains(target, ":") {
			return
		}
		if !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
	}
	for _, m := range rePipedLink.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	noPiped := rePipedLink.ReplaceAllString(content, "")
	for _, m := range reBareLink.FindAllStringSubmatch(noPiped, -1) {
		add(m[1])
	}
	return out
}

func extractCategories(content string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range reCategory.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// cleanWikitext strips templates (to a fixed point, since templates
// can nest), refs, file/image links, converts wikilinks to plain
// text, strips remaining HTML tags, and collapses whitespace.
func cleanWikitext(raw string) string {
	s := raw
	for {
		stripped := reTemplate.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = reRef.ReplaceAllString(s, "")
	s = reSelfCloseRef.ReplaceAllString(s, "")
	s = reFileLink.ReplaceAllString(s, "")
	s = reCategory.ReplaceAllString(s, "")
	s = rePipedLink.ReplaceAllString(s, "$2")
	s = reBareLink.ReplaceAllString(s, "$1")
	s = reTag.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = reBlankLines.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func splitWikiSections(clean string) []core.ParsedSection {
	var sections []core.ParsedSection
	matches := reHeading.FindAllStringSubmatchIndex(clean, -1)

	if len(matches) == 0 {
		if strings.TrimSpace(clean) != "" {
			sections = append(sections, core.ParsedSection{Title: "", Content: strings.TrimSpace(clean), Level: 0})
		}
		return sections
	}

	if lead := strings.TrimSpace(clean[:matches[0][0]]); lead != "" {
		sections = append(sections, core.ParsedSection{Title: "", Content: lead, Level: 0})
	}

	for i, m := range matches {
		markers := clean[m[2]:m[3]]
		title := strings.TrimSpace(clean[m[4]:m[5]])
		level := strings.Count(markers, "=")
		start := m[1]
		end := len(clean)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(clean[start:end])
		sections = append(sections, core.ParsedSection{Title: title, Content: body, Level: level})
	}
	return sections
}
