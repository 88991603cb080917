package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
	"github.com/chaptrailapp/chaptrail-server/internal/ratelimit"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxRedirects     = 10
)

// HTTPScraper is a generic Scraper over plain HTTP: it loads the page once
// and collects chapter-looking anchors in document order. It knows nothing
// about any specific site's markup; listing pages that require scripting
// need a different Scraper implementation behind the same interface.
type HTTPScraper struct {
	client    *http.Client
	limiter   *ratelimit.PerOrigin
	logger    *slog.Logger
	timeout   time.Duration
	userAgent string
}

// NewHTTPScraper builds a scraper with the given per-fetch timeout and
// per-origin pacing. userAgent may be empty for the built-in default.
func NewHTTPScraper(timeout time.Duration, userAgent string, limiter *ratelimit.PerOrigin, logger *slog.Logger) *HTTPScraper {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := &http.Client{
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}

	return &HTTPScraper{
		client:    client,
		limiter:   limiter,
		logger:    logger,
		timeout:   timeout,
		userAgent: userAgent,
	}
}

var errTooManyRedirects = errors.New("too many redirects")

// Fetch implements Scraper. Page-level failures come back as a typed Result
// status; the returned error is non-nil only when ctx ended.
func (s *HTTPScraper) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	origin := normalize.Origin(pageURL)
	if err := s.limiter.Wait(ctx, origin); err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Failure(pageURL, StatusUnknown, err.Error()), nil
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return Failure(pageURL, classifyFetchError(err), err.Error()), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		r := Failure(pageURL, StatusError, fmt.Sprintf("http status %d", resp.StatusCode))
		r.HTTPStatus = resp.StatusCode
		r.FinalURL = resp.Request.URL.String()
		return r, nil
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return Failure(pageURL, StatusTypeError, err.Error()), nil
	}

	result := &Result{
		StartURL: pageURL,
		FinalURL: resp.Request.URL.String(),
	}
	s.extract(doc, resp.Request.URL, result)

	if len(result.Chapters) == 0 {
		result.Status = StatusNoChapters
		result.Detail = "no chapter links found"
		return result, nil
	}

	result.Clean()
	return result, nil
}

// classifyFetchError maps transport errors onto the scrape status taxonomy.
func classifyFetchError(err error) Status {
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, errTooManyRedirects):
		return StatusTooManyRedirects
	case errors.As(err, &dnsErr):
		return StatusNameNotResolved
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return StatusNavigationTimeout
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return StatusNavigationTimeout
		}
		return StatusNoResponse
	}
}

// extract walks the DOM collecting the page title, a cover image, a
// description, and every same-site anchor whose URL looks like a chapter
// link, preserving document order (listing pages put the newest first).
func (s *HTTPScraper) extract(n *html.Node, base *url.URL, result *Result) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if result.Name == "" && n.FirstChild != nil {
				result.Name = n.FirstChild.Data
			}
		case "meta":
			s.extractMeta(n, result)
		case "a":
			s.extractAnchor(n, base, result)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.extract(c, base, result)
	}
}

func (s *HTTPScraper) extractMeta(n *html.Node, result *Result) {
	var property, content string
	for _, a := range n.Attr {
		switch a.Key {
		case "property", "name":
			property = a.Val
		case "content":
			content = a.Val
		}
	}

	switch property {
	case "og:title":
		result.Name = content
	case "og:image":
		if result.Image == "" {
			result.Image = content
		}
	case "og:description", "description":
		if result.Description == "" {
			result.Description = content
		}
	}
}

func (s *HTTPScraper) extractAnchor(n *html.Node, base *url.URL, result *Result) {
	var href, rel, class string
	for _, a := range n.Attr {
		switch a.Key {
		case "href":
			href = a.Val
		case "rel":
			rel = a.Val
		case "class":
			class = a.Val
		}
	}

	// Download mirrors and outbound links are never chapters.
	if href == "" || strings.Contains(class, "dload") || strings.Contains(rel, "noreferrer noopener") {
		return
	}

	ref, err := base.Parse(href)
	if err != nil || ref.Host != base.Host {
		return
	}

	abs := ref.String()
	lower := strings.ToLower(abs)
	if !strings.Contains(lower, "chapter") && !strings.Contains(lower, "/chap-") {
		return
	}
	if normalize.ChapterLabel(abs) == normalize.UnknownChapter {
		return
	}

	for _, existing := range result.Chapters {
		if existing == abs {
			return
		}
	}
	result.Chapters = append(result.Chapters, abs)
}
