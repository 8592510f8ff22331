package pipeline_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posterfeed/internal/config"
	"posterfeed/internal/feed"
	"posterfeed/internal/images"
	"posterfeed/internal/pipeline"
	"posterfeed/internal/poster"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func testConfig(t *testing.T, feedURL string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.FeedURL = feedURL
	cfg.DataDir = filepath.Join(root, "data")
	cfg.FullsDir = filepath.Join(root, "fulls")
	cfg.ThumbsDir = filepath.Join(root, "thumbs")
	return &cfg
}

func newService(cfg *config.Config) *pipeline.Service {
	client := &http.Client{Timeout: 5 * time.Second}
	return pipeline.NewService(
		cfg,
		feed.NewFetcher(client, cfg.UserAgent),
		poster.NewResolver(client, cfg.UserAgent, 0),
		images.NewMaterializer(client, cfg.FullsDir, cfg.ThumbsDir, cfg.UserAgent),
	)
}

func TestService_Run(t *testing.T) {
	posterData := testJPEG(t, 1200, 1800)
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(posterData)
	}))
	defer imageServer.Close()

	feedXML := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0">
  <channel>
    <title>Films diary</title>
    <link>https://example.com/films/</link>
    <item>
      <title>Parasite, 2019</title>
      <link>https://example.com/films/parasite/</link>
      <guid isPermaLink="false">review-1</guid>
      <description><![CDATA[<p><img src="%s/poster-0-230-0-345-crop.jpg"/></p><p>Loved it.</p>]]></description>
    </item>
    <item>
      <title>Obscure Short, 1931</title>
      <link>https://example.com/films/obscure-short/</link>
      <guid isPermaLink="false">review-2</guid>
      <description><![CDATA[<p><img src="https://example.com/static/empty-poster-230.png"/></p><p>No artwork.</p>]]></description>
    </item>
  </channel>
</rss>`, imageServer.URL)

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer feedServer.Close()

	cfg := testConfig(t, feedServer.URL)
	svc := newService(cfg)

	stats, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, 2, stats.Cleaned)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.SkippedNoGUID)
	assert.Equal(t, 1, stats.Placeholders)
	assert.Equal(t, 1, stats.ImagesDownloaded)
	assert.Equal(t, 1, stats.Thumbnails)

	// The placeholder item produces no files; the regular item produces both.
	assert.FileExists(t, filepath.Join(cfg.FullsDir, "parasite-2019_full.jpg"))
	assert.FileExists(t, filepath.Join(cfg.ThumbsDir, "parasite-2019_thumb.jpg"))
	assert.NoFileExists(t, filepath.Join(cfg.FullsDir, "obscure-short-1931_full.jpg"))

	raw, err := os.ReadFile(cfg.RawFeedPath())
	require.NoError(t, err)
	assert.Equal(t, feedXML, string(raw), "raw feed is persisted unmodified")

	out, err := os.ReadFile(cfg.CleanedFeedPath())
	require.NoError(t, err)
	cleaned := string(out)
	assert.Contains(t, cleaned, "review-1")
	assert.Contains(t, cleaned, "review-2", "placeholder items keep their cleaned description")
	assert.Contains(t, cleaned, "Loved it.")
	assert.NotContains(t, cleaned, "<img", "image tags are stripped from descriptions")
}

func TestService_Run_SecondPassUsesCache(t *testing.T) {
	posterData := testJPEG(t, 600, 900)
	var imageRequests int
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		imageRequests++
		_, _ = w.Write(posterData)
	}))
	defer imageServer.Close()

	feedXML := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0">
  <channel>
    <title>Films diary</title>
    <item>
      <title>Heat</title>
      <link>https://example.com/films/heat/</link>
      <guid isPermaLink="false">review-1</guid>
      <description><![CDATA[<p><img src="%s/heat.jpg"/></p>]]></description>
    </item>
  </channel>
</rss>`, imageServer.URL)

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	}))
	defer feedServer.Close()

	cfg := testConfig(t, feedServer.URL)
	svc := newService(cfg)

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.ImagesDownloaded)

	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.ImagesDownloaded)
	assert.Zero(t, second.Thumbnails)
	assert.Equal(t, 1, imageRequests, "cached image is not re-downloaded")
}

func TestService_Run_FetchFailureAborts(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer feedServer.Close()

	cfg := testConfig(t, feedServer.URL)
	svc := newService(cfg)

	stats, err := svc.Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, stats)
	assert.NoFileExists(t, cfg.CleanedFeedPath())
}

func TestService_Run_InvalidFeedAborts(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not xml at all <<<"))
	}))
	defer feedServer.Close()

	cfg := testConfig(t, feedServer.URL)
	svc := newService(cfg)

	_, err := svc.Run(context.Background())
	require.Error(t, err)

	// The raw bytes are still persisted for offline inspection.
	assert.FileExists(t, cfg.RawFeedPath())
	assert.NoFileExists(t, cfg.CleanedFeedPath())
}
