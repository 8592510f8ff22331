package entity

import "errors"

// Sentinel errors for feed document handling.
var (
	// ErrInvalidFeed indicates the fetched document is not a usable RSS feed.
	ErrInvalidFeed = errors.New("invalid feed document")

	// ErrNoChannel indicates the RSS document has no channel element.
	ErrNoChannel = errors.New("feed has no channel element")
)
