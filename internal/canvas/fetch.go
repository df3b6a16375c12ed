// Package canvas turns ranked canvas items into the report-card JPEG:
// concurrent cover fetching with placeholder fallback, grid composition
// and caption rendering.
package canvas

import (
	"context"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	// Cover art arrives as JPEG or PNG; GIF shows up occasionally.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/metalstats/metalstats/internal/topitems"
)

// PlaceholderFile is the logical name of the fallback cover in the static
// asset filesystem.
const PlaceholderFile = "placeholder.png"

const fetchTimeout = 10 * time.Second

// Fetcher resolves canvas item image references to fixed-size pixel data.
// Every failure degrades to the bundled placeholder; fetching never fails
// a request.
type Fetcher struct {
	httpClient  *http.Client
	placeholder image.Image
	coverWidth  int
	coverHeight int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewFetcher loads the placeholder from the static assets and prepares an
// HTTP client for cover downloads. A missing or undecodable placeholder is
// a fatal misconfiguration.
func NewFetcher(assets fs.FS, s Settings, logger *slog.Logger) (*Fetcher, error) {
	return NewFetcherWithClient(assets, s, logger, &http.Client{Timeout: fetchTimeout})
}

// NewFetcherWithClient is NewFetcher with a caller-supplied HTTP client.
func NewFetcherWithClient(assets fs.FS, s Settings, logger *slog.Logger, client *http.Client) (*Fetcher, error) {
	file, err := assets.Open(PlaceholderFile)
	if err != nil {
		return nil, fmt.Errorf("opening placeholder image: %w", err)
	}
	defer file.Close()

	placeholder, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding placeholder image: %w", err)
	}

	return &Fetcher{
		httpClient:  client,
		placeholder: placeholder,
		coverWidth:  s.CoverWidth,
		coverHeight: s.CoverHeight,
		timeout:     fetchTimeout,
		logger:      logger,
	}, nil
}

// Placeholder returns the fallback cover image.
func (f *Fetcher) Placeholder() image.Image {
	return f.placeholder
}

// ResolveAll fetches every item's cover concurrently and returns one image
// per item, positionally matched to the input. Items without an image URL
// get the placeholder without touching the network; failed fetches get the
// placeholder without disturbing sibling fetches. ResolveAll returns only
// after every slot is filled.
func (f *Fetcher) ResolveAll(ctx context.Context, items []topitems.CanvasItem) []image.Image {
	images := make([]image.Image, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		if item.ImageURL == "" {
			images[i] = f.placeholder
			continue
		}

		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			images[i] = f.fetchCover(ctx, url)
		}(i, item.ImageURL)
	}
	wg.Wait()

	return images
}

// fetchCover downloads, decodes and resizes one cover, falling back to the
// placeholder on any failure.
func (f *Fetcher) fetchCover(ctx context.Context, url string) image.Image {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return f.fallback(url, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return f.fallback(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return f.fallback(url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	src, _, err := image.Decode(resp.Body)
	if err != nil {
		return f.fallback(url, err)
	}

	return f.resize(src)
}

// fallback logs a soft failure and substitutes the placeholder.
func (f *Fetcher) fallback(url string, err error) image.Image {
	if f.logger != nil {
		f.logger.Warn("cover fetch failed, using placeholder",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
	}
	return f.placeholder
}

// resize stretches src to exactly coverWidth x coverHeight. Aspect ratio
// is intentionally not preserved; grid cells are uniform. CatmullRom keeps
// the scaling deterministic and sharp.
func (f *Fetcher) resize(src image.Image) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, f.coverWidth, f.coverHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
