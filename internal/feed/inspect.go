package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Diagnostic is the result of probing the configured feed. It is meant for
// human inspection when the pipeline output looks wrong.
type Diagnostic struct {
	URL          string        `json:"url"`
	Status       string        `json:"status"` // "OK", "FETCH_ERROR", "EMPTY"
	FeedTitle    string        `json:"feed_title,omitempty"`
	ItemCount    int           `json:"item_count"`
	MissingGUIDs int           `json:"missing_guids"`
	LatestItem   string        `json:"latest_item,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Inspect fetches and parses the feed with gofeed and reports item counts and
// items lacking a guid, which the pipeline would drop from its output.
func Inspect(ctx context.Context, client *http.Client, feedURL, userAgent string) Diagnostic {
	diag := Diagnostic{URL: feedURL}

	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = client

	start := time.Now()
	parsed, err := fp.ParseURLWithContext(feedURL, ctx)
	diag.ResponseTime = time.Since(start)

	if err != nil {
		diag.Status = "FETCH_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	diag.FeedTitle = parsed.Title
	diag.ItemCount = len(parsed.Items)

	for _, item := range parsed.Items {
		if item.GUID == "" {
			diag.MissingGUIDs++
		}
	}

	if len(parsed.Items) > 0 {
		latest := parsed.Items[0]
		diag.LatestItem = latest.Title
		if latest.PublishedParsed != nil {
			diag.LatestItem += " (" + latest.PublishedParsed.Format(time.RFC3339) + ")"
		}
	}

	if diag.ItemCount == 0 {
		diag.Status = "EMPTY"
		diag.ErrorMessage = "feed has no items"
		return diag
	}

	diag.Status = "OK"
	return diag
}
