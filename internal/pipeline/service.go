// Package pipeline orchestrates a single pass over the configured feed:
// fetch, per-item poster resolution and image materialization, description
// cleaning, and reassembly of the cleaned output document.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"posterfeed/internal/clean"
	"posterfeed/internal/config"
	"posterfeed/internal/domain/entity"
	"posterfeed/internal/feed"
	"posterfeed/internal/images"
	"posterfeed/internal/observability/metrics"
	"posterfeed/internal/poster"
	"posterfeed/internal/utils/slug"
)

// Service wires the pipeline components together.
type Service struct {
	cfg          *config.Config
	fetcher      *feed.Fetcher
	resolver     *poster.Resolver
	materializer *images.Materializer
}

// NewService creates a pipeline Service with the provided dependencies.
func NewService(cfg *config.Config, fetcher *feed.Fetcher, resolver *poster.Resolver, materializer *images.Materializer) *Service {
	return &Service{
		cfg:          cfg,
		fetcher:      fetcher,
		resolver:     resolver,
		materializer: materializer,
	}
}

// Stats contains statistics about one pipeline run.
type Stats struct {
	Items            int
	Cleaned          int
	SkippedNoGUID    int
	Failed           int
	Placeholders     int
	ImagesDownloaded int
	Thumbnails       int
	Duration         time.Duration
}

// Run executes one pipeline pass. Feed fetch and parse failures abort the run
// and are returned; every per-item failure is logged with the item's title
// and processing continues with the next item.
func (s *Service) Run(ctx context.Context) (*Stats, error) {
	logger := slog.Default().With(slog.String("run_id", uuid.NewString()))
	start := time.Now()
	stats := &Stats{}

	logger.Info("run started", slog.String("feed_url", s.cfg.FeedURL))

	fetchStart := time.Now()
	raw, err := s.fetcher.Fetch(ctx, s.cfg.FeedURL)
	if err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	metrics.RecordFeedFetch(time.Since(fetchStart))

	if err := os.MkdirAll(s.cfg.DataDir, 0o755); err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := s.materializer.EnsureDirs(); err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return nil, err
	}

	// Persist the unmodified bytes before any processing so a bad run can
	// be replayed offline.
	if err := os.WriteFile(s.cfg.RawFeedPath(), raw, 0o644); err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return nil, fmt.Errorf("write raw feed: %w", err)
	}
	logger.Info("raw feed saved", slog.String("path", s.cfg.RawFeedPath()))

	doc, err := feed.Parse(raw)
	if err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	cleaned := make(map[string]string)
	for _, el := range doc.Items() {
		item := feed.ItemFields(el)
		stats.Items++

		if err := s.processItem(ctx, logger, item, cleaned, stats); err != nil {
			stats.Failed++
			metrics.RecordItem("failed")
			logger.Warn("item processing failed, skipping",
				slog.String("title", item.Title),
				slog.Any("error", err))
		}
	}

	out, err := doc.Reassemble(cleaned)
	if err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return nil, err
	}
	if err := os.WriteFile(s.cfg.CleanedFeedPath(), out, 0o644); err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return nil, fmt.Errorf("write cleaned feed: %w", err)
	}

	stats.Duration = time.Since(start)
	metrics.RecordRun("success", stats.Duration)

	logger.Info("run completed",
		slog.String("path", s.cfg.CleanedFeedPath()),
		slog.Int("items", stats.Items),
		slog.Int("cleaned", stats.Cleaned),
		slog.Int("skipped_no_guid", stats.SkippedNoGUID),
		slog.Int("failed", stats.Failed),
		slog.Int("placeholders", stats.Placeholders),
		slog.Int("images_downloaded", stats.ImagesDownloaded),
		slog.Int("thumbnails", stats.Thumbnails),
		slog.Duration("duration", stats.Duration),
	)

	return stats, nil
}

// processItem handles one feed item: poster resolution, image side effects,
// and description cleaning keyed by guid.
func (s *Service) processItem(ctx context.Context, logger *slog.Logger, item entity.FeedItem, cleanedMap map[string]string, stats *Stats) error {
	resolved := s.resolver.Resolve(ctx, poster.Source{
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
	})

	switch {
	case resolved == nil:
		metrics.RecordPosterResolved(metrics.OutcomeNone)
	case resolved.IsPlaceholder:
		metrics.RecordPosterResolved(metrics.OutcomePlaceholder)
		stats.Placeholders++
	case resolved.IsListEntry:
		metrics.RecordPosterResolved(metrics.OutcomeList)
	default:
		metrics.RecordPosterResolved(metrics.OutcomePoster)
	}

	if resolved != nil && !resolved.IsPlaceholder {
		if stem := slug.Make(item.Title); stem != "" {
			outcome := s.materializer.Materialize(ctx, resolved.URL, stem)
			if outcome.Downloaded {
				stats.ImagesDownloaded++
			}
			if outcome.Downloaded || outcome.DownloadFailed {
				metrics.RecordImageDownload(outcome.Downloaded)
			}
			if outcome.ThumbGenerated {
				stats.Thumbnails++
			}
			if outcome.ThumbGenerated || outcome.ThumbFailed {
				metrics.RecordThumbnail(outcome.ThumbGenerated)
			}
		}
	}

	if !item.HasGUID() {
		logger.Info("item has no guid, dropping from output", slog.String("title", item.Title))
		stats.SkippedNoGUID++
		metrics.RecordItem("skipped_no_guid")
		return nil
	}

	cleanedMap[item.GUID] = clean.Description(item.Description)
	stats.Cleaned++
	metrics.RecordItem("cleaned")
	return nil
}
