// Package poster resolves the best available poster image URL for a feed item.
// It scrapes the canonical film page's social-preview meta tag when possible
// and falls back to the first image reference in the item's description.
package poster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	// placeholderMarker appears in URLs of the site's "no artwork available"
	// image. Such items are treated as having no usable poster.
	placeholderMarker = "empty-poster"

	// listMarker appears in poster URLs for list-type entries, which are
	// served at a single size and must not be resolution-upgraded.
	listMarker = "letterboxd-list-"

	maxBodySize = 10 * 1024 * 1024 // 10MB
)

var (
	// srcAttrPattern finds the first src attribute in raw description HTML.
	srcAttrPattern = regexp.MustCompile(`src="([^"]+)"`)

	// sizePattern matches the width/height size segment embedded in poster
	// URLs, e.g. -0-230-0-345-crop.
	sizePattern = regexp.MustCompile(`-0-\d+-0-\d+(-crop)?`)

	// widthPattern matches the simpler width-only segment, e.g. -0-230-,
	// for URLs the full size pattern did not cover.
	widthPattern = regexp.MustCompile(`-0-\d+-`)
)

// Resolved describes the outcome of poster resolution for one item.
type Resolved struct {
	// URL is the candidate poster URL, possibly resolution-upgraded.
	URL string

	// IsListEntry marks list-type posters whose URL was kept verbatim.
	IsListEntry bool

	// IsPlaceholder marks the site's empty-poster image. The caller must
	// skip all image I/O for the item but still clean its description.
	IsPlaceholder bool
}

// Source carries the item fields resolution operates on.
type Source struct {
	Title       string
	Link        string
	Description string
}

// Resolver discovers poster URLs, scraping film pages politely via a shared
// rate limiter. All scraping failures degrade to the description fallback;
// Resolve never returns an error.
type Resolver struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewResolver creates a Resolver using the given HTTP client. The client is
// expected to carry the short scrape timeout. scrapeRate limits film-page
// requests per second; zero or negative disables the limiter.
func NewResolver(client *http.Client, userAgent string, scrapeRate float64) *Resolver {
	var limiter *rate.Limiter
	if scrapeRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(scrapeRate), 1)
	}
	return &Resolver{
		client:    client,
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// Resolve determines the poster URL for an item. It returns nil when no image
// reference can be found at all. Network and parse errors during scraping are
// logged and treated as "no candidate from scraping".
func (r *Resolver) Resolve(ctx context.Context, src Source) *Resolved {
	candidate := ""

	if strings.Contains(src.Link, "/film/") {
		if scraped := r.scrapeFilmPage(ctx, src.Link); scraped != "" {
			candidate = scraped
		}
	}

	if candidate == "" {
		if m := srcAttrPattern.FindStringSubmatch(src.Description); m != nil {
			candidate = m[1]
			slog.Debug("poster found in description", slog.String("url", candidate))
		}
	}

	if candidate == "" {
		return nil
	}

	if strings.Contains(candidate, placeholderMarker) {
		slog.Info("empty-poster placeholder, skipping image download",
			slog.String("title", src.Title))
		return &Resolved{URL: candidate, IsPlaceholder: true}
	}

	if strings.Contains(candidate, listMarker) {
		return &Resolved{URL: candidate, IsListEntry: true}
	}

	return &Resolved{URL: upgradeResolution(candidate)}
}

// scrapeFilmPage fetches the canonical film page and extracts the og:image
// meta tag. It returns "" on any failure or when the link does not normalize
// to a film page.
func (r *Resolver) scrapeFilmPage(ctx context.Context, link string) string {
	pageURL := canonicalFilmURL(link)
	if !strings.Contains(pageURL, "/film/") {
		return ""
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return ""
		}
	}

	slog.Debug("scraping film page for poster", slog.String("url", pageURL))

	doc, err := r.fetchHTML(ctx, pageURL)
	if err != nil {
		slog.Warn("film page scrape failed, falling back to description",
			slog.String("url", pageURL),
			slog.Any("error", err))
		return ""
	}

	content, exists := doc.Find(`meta[property="og:image"]`).Attr("content")
	if !exists || content == "" {
		slog.Debug("og:image meta tag not found", slog.String("url", pageURL))
		return ""
	}

	slog.Debug("poster found via og:image", slog.String("url", content))
	return content
}

// fetchHTML fetches and parses an HTML page.
func (r *Resolver) fetchHTML(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

// canonicalFilmURL strips a trailing numeric diary-entry segment from a
// review link, yielding the main film page URL.
func canonicalFilmURL(link string) string {
	trimmed := strings.TrimRight(link, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) > 1 && isDigits(parts[len(parts)-1]) {
		return strings.Join(parts[:len(parts)-1], "/") + "/"
	}
	return link
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// upgradeResolution rewrites the size segment of a single-poster URL to
// request the 2000x3000 cropped variant. The width-only substitution covers
// URLs the full pattern did not match.
func upgradeResolution(posterURL string) string {
	upgraded := sizePattern.ReplaceAllString(posterURL, "-0-2000-0-3000-crop")
	upgraded = widthPattern.ReplaceAllString(upgraded, "-0-2000-")
	if upgraded != posterURL {
		slog.Debug("upgraded poster resolution",
			slog.String("from", posterURL),
			slog.String("to", upgraded))
	}
	return upgraded
}
