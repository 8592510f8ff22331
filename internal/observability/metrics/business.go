package metrics

import "time"

// Poster resolution outcomes recorded by RecordPosterResolved.
const (
	OutcomePoster      = "poster"      // single-item poster, resolution-upgraded
	OutcomeList        = "list"        // list entry, URL kept verbatim
	OutcomePlaceholder = "placeholder" // empty-poster marker, image I/O skipped
	OutcomeNone        = "none"        // no image reference found at all
)

// RecordRun records a completed pipeline run.
// Status should be "success" or "failure".
func RecordRun(status string, duration time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration.Seconds())
}

// RecordItem records the result of processing one feed item.
// Result should be "cleaned", "skipped_no_guid", or "failed".
func RecordItem(result string) {
	ItemsProcessedTotal.WithLabelValues(result).Inc()
}

// RecordPosterResolved records a poster resolution outcome.
func RecordPosterResolved(outcome string) {
	PostersResolvedTotal.WithLabelValues(outcome).Inc()
}

// RecordImageDownload records a full-size image download attempt.
func RecordImageDownload(success bool) {
	ImageDownloadsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordThumbnail records a thumbnail generation attempt.
func RecordThumbnail(success bool) {
	ThumbnailsGeneratedTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordFeedFetch records the feed download duration.
func RecordFeedFetch(duration time.Duration) {
	FeedFetchDuration.Observe(duration.Seconds())
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
