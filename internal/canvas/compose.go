package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"io/fs"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/metalstats/metalstats/internal/topitems"
)

// ErrFontLoad is returned when the bundled caption font cannot be loaded.
// This is a fatal misconfiguration, not a per-request failure.
var ErrFontLoad = errors.New("caption font unavailable")

// Settings fixes the report-card geometry and styling.
type Settings struct {
	Padding      int
	CoversPerRow int
	CoverWidth   int
	CoverHeight  int
	FontSize     int
	FontFile     string
	Background   color.Color
	Foreground   color.Color
}

// DefaultSettings matches the published report-card format: 200x200 covers,
// five per row, black background, white monospace captions.
func DefaultSettings() Settings {
	return Settings{
		Padding:      10,
		CoversPerRow: 5,
		CoverWidth:   200,
		CoverHeight:  200,
		FontSize:     12,
		FontFile:     "DejaVuSansMono.ttf",
		Background:   color.Black,
		Foreground:   color.White,
	}
}

// Composer lays ranked covers and captions out on one canvas.
type Composer struct {
	settings Settings

	// opentype faces are not safe for concurrent use; Compose and
	// measurement calls serialize on mu.
	mu   sync.Mutex
	face font.Face
}

// NewComposer loads the caption font from the static assets. A missing or
// unparsable font wraps ErrFontLoad.
func NewComposer(assets fs.FS, s Settings) (*Composer, error) {
	data, err := fs.ReadFile(assets, s.FontFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFontLoad, s.FontFile, err)
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrFontLoad, s.FontFile, err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(s.FontSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: building face: %v", ErrFontLoad, err)
	}

	return &Composer{settings: s, face: face}, nil
}

// Settings returns the composer's fixed layout settings.
func (c *Composer) Settings() Settings {
	return c.settings
}

// caption renders the ranked label for item idx (0-based).
func caption(idx int, title string) string {
	return fmt.Sprintf("%2d. %s", idx+1, title)
}

// Geometry computes the output dimensions for a given item set. Width grows
// with the longest caption; height with the number of grid rows. Zero items
// yield a minimal canvas, not an error.
func (c *Composer) Geometry(items []topitems.CanvasItem) (width, height int) {
	s := c.settings
	rows := (len(items) + s.CoversPerRow - 1) / s.CoversPerRow

	maxLabelWidth := 0
	c.mu.Lock()
	drawer := font.Drawer{Face: c.face}
	for i, item := range items {
		if w := drawer.MeasureString(caption(i, item.Title)).Ceil(); w > maxLabelWidth {
			maxLabelWidth = w
		}
	}
	c.mu.Unlock()

	width = s.CoversPerRow*s.CoverWidth + (s.CoversPerRow+1)*s.Padding + maxLabelWidth + 2*s.Padding
	height = rows*s.CoverHeight + (rows+1)*s.Padding
	return width, height
}

// Compose rasterizes covers and rank-labeled captions into one image.
// covers must be positionally matched to items (the fetcher guarantees
// same order, same length).
func (c *Composer) Compose(items []topitems.CanvasItem, covers []image.Image) *image.RGBA {
	s := c.settings
	width, height := c.Geometry(items)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(s.Background), image.Point{}, draw.Src)

	labelX := s.CoversPerRow*(s.CoverWidth+s.Padding) + 2*s.Padding

	c.mu.Lock()
	defer c.mu.Unlock()

	ascent := c.face.Metrics().Ascent.Ceil()
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(s.Foreground),
		Face: c.face,
	}

	for i, item := range items {
		row := i / s.CoversPerRow
		col := i % s.CoversPerRow

		x := s.Padding + col*(s.CoverWidth+s.Padding)
		y := s.Padding + row*(s.CoverHeight+s.Padding)

		if i < len(covers) && covers[i] != nil {
			cell := image.Rect(x, y, x+s.CoverWidth, y+s.CoverHeight)
			draw.Draw(img, cell, covers[i], covers[i].Bounds().Min, draw.Src)
		}

		// The caption column steps by col within a row rather than by a
		// running line counter, so wide layouts can overlap labels. That
		// quirk is part of the published output format and is kept as is.
		labelY := s.Padding + row*(s.CoverHeight+s.Padding) + col*(s.FontSize+5)

		drawer.Dot = fixed.P(labelX, labelY+ascent)
		drawer.DrawString(caption(i, item.Title))
	}

	return img
}

// EncodeJPEG writes img as a JPEG at the default quality.
func EncodeJPEG(w io.Writer, img image.Image) error {
	if err := jpeg.Encode(w, img, nil); err != nil {
		return fmt.Errorf("encoding jpeg: %w", err)
	}
	return nil
}
