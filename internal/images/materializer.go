// Package images downloads poster images and maintains the on-disk cache of
// full-size files and 600x900 thumbnails.
package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	thumbWidth  = 600
	thumbHeight = 900
	jpegQuality = 95

	maxImageSize = 20 * 1024 * 1024 // 20MB
)

// Outcome reports what a Materialize call actually did, for run statistics.
// Failures are logged inside the materializer and never propagate.
type Outcome struct {
	Downloaded     bool
	DownloadFailed bool
	ThumbGenerated bool
	ThumbFailed    bool
}

// Materializer idempotently materializes a poster URL into the full-size and
// thumbnail stores. Existence on disk is the cache validity signal: a present
// full image is never re-downloaded, and a missing thumbnail is regenerated
// from the full image without touching the network.
type Materializer struct {
	client    *http.Client
	fullsDir  string
	thumbsDir string
	userAgent string
}

// NewMaterializer creates a Materializer writing into the given directories.
func NewMaterializer(client *http.Client, fullsDir, thumbsDir, userAgent string) *Materializer {
	return &Materializer{
		client:    client,
		fullsDir:  fullsDir,
		thumbsDir: thumbsDir,
		userAgent: userAgent,
	}
}

// EnsureDirs creates the image directories if they are absent.
func (m *Materializer) EnsureDirs() error {
	for _, dir := range []string{m.fullsDir, m.thumbsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create image directory %s: %w", dir, err)
		}
	}
	return nil
}

// Reset deletes and recreates both image directories, forcing a full
// re-download on the next run.
func (m *Materializer) Reset() error {
	for _, dir := range []string{m.fullsDir, m.thumbsDir} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove image directory %s: %w", dir, err)
		}
	}
	return m.EnsureDirs()
}

// FullPath returns the full-size image path for a slug.
func (m *Materializer) FullPath(slug string) string {
	return filepath.Join(m.fullsDir, slug+"_full.jpg")
}

// ThumbPath returns the thumbnail path for a slug.
func (m *Materializer) ThumbPath(slug string) string {
	return filepath.Join(m.thumbsDir, slug+"_thumb.jpg")
}

// Materialize downloads the poster into the full-size store and generates the
// thumbnail, skipping whatever already exists. Download and thumbnail
// failures are logged and swallowed so a bad image cannot stop the run.
func (m *Materializer) Materialize(ctx context.Context, url, slug string) Outcome {
	var out Outcome
	fullPath := m.FullPath(slug)
	thumbPath := m.ThumbPath(slug)

	switch {
	case !fileExists(fullPath):
		if err := m.download(ctx, url, fullPath); err != nil {
			slog.Warn("image download failed",
				slog.String("url", url),
				slog.String("path", fullPath),
				slog.Any("error", err))
			out.DownloadFailed = true
			return out
		}
		out.Downloaded = true
		slog.Info("downloaded poster", slog.String("path", fullPath))

		if !fileExists(thumbPath) {
			out.ThumbGenerated = m.generateThumbnail(fullPath, thumbPath)
			out.ThumbFailed = !out.ThumbGenerated
		}

	case !fileExists(thumbPath):
		// Full image cached from an earlier run; only the thumbnail is gone.
		out.ThumbGenerated = m.generateThumbnail(fullPath, thumbPath)
		out.ThumbFailed = !out.ThumbGenerated
	}

	return out
}

// download fetches the URL and writes the body to path.
func (m *Materializer) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// generateThumbnail builds the 600x900 thumbnail from the full image and
// reports success. Failures are logged and swallowed.
func (m *Materializer) generateThumbnail(fullPath, thumbPath string) bool {
	if err := makeThumbnail(fullPath, thumbPath); err != nil {
		slog.Warn("thumbnail generation failed",
			slog.String("full", fullPath),
			slog.String("thumb", thumbPath),
			slog.Any("error", err))
		return false
	}
	slog.Info("created thumbnail", slog.String("path", thumbPath))
	return true
}

// makeThumbnail center-crops the source to the 2:3 poster aspect, resizes to
// 600x900 with Lanczos resampling, and encodes as JPEG quality 95. Decoding
// via imaging converts indexed and alpha color modes to plain RGB.
func makeThumbnail(fullPath, thumbPath string) error {
	img, err := imaging.Open(fullPath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}

	// Fill crops centrally to the target aspect before scaling, so wide
	// images lose width and tall images lose height.
	thumb := imaging.Fill(img, thumbWidth, thumbHeight, imaging.Center, imaging.Lanczos)

	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
