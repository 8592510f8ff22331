// Package entity defines the core domain types shared across the pipeline.
package entity

// FeedItem is a single entry from the source RSS document, reduced to the
// fields the pipeline makes decisions on. The full set of child elements
// (publication date, namespaced fields) stays in the parsed XML tree and is
// passed through untouched at reassembly time.
type FeedItem struct {
	// Title is the item title, used to derive the image filename slug.
	Title string

	// Link is the item's target URL. Links containing a /film/ segment are
	// candidates for poster scraping.
	Link string

	// GUID uniquely identifies the item. Items without a GUID are dropped
	// from the cleaned output document.
	GUID string

	// Description is the raw HTML description as it appears in the feed.
	Description string
}

// HasGUID reports whether the item carries a usable identity.
func (i FeedItem) HasGUID() bool {
	return i.GUID != ""
}
