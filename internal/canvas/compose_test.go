package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io/fs"
	"testing"
	"testing/fstest"

	"golang.org/x/image/font"

	webfs "github.com/metalstats/metalstats/web"

	"github.com/metalstats/metalstats/internal/topitems"
)

func testComposer(t *testing.T) *Composer {
	t.Helper()
	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		t.Fatalf("creating static filesystem: %v", err)
	}
	c, err := NewComposer(static, DefaultSettings())
	if err != nil {
		t.Fatalf("NewComposer() error = %v", err)
	}
	return c
}

// maxCaptionWidth measures the widest rendered caption the same way the
// composer does.
func maxCaptionWidth(c *Composer, items []topitems.CanvasItem) int {
	drawer := font.Drawer{Face: c.face}
	max := 0
	for i, item := range items {
		if w := drawer.MeasureString(caption(i, item.Title)).Ceil(); w > max {
			max = w
		}
	}
	return max
}

func TestCaption(t *testing.T) {
	tests := []struct {
		idx   int
		title string
		want  string
	}{
		{0, "Mgla - VI", " 1. Mgla - VI"},
		{8, "Emperor", " 9. Emperor"},
		{9, "Emperor", "10. Emperor"},
		{41, "Bolt Thrower", "42. Bolt Thrower"},
	}

	for _, tt := range tests {
		if got := caption(tt.idx, tt.title); got != tt.want {
			t.Errorf("caption(%d, %q) = %q, want %q", tt.idx, tt.title, got, tt.want)
		}
	}
}

func TestGeometry(t *testing.T) {
	c := testComposer(t)
	s := c.Settings()

	t.Run("zero items", func(t *testing.T) {
		width, height := c.Geometry(nil)

		wantWidth := s.CoversPerRow*s.CoverWidth + (s.CoversPerRow+1)*s.Padding + 2*s.Padding
		if width != wantWidth {
			t.Errorf("width = %d, want %d", width, wantWidth)
		}
		if height != s.Padding {
			t.Errorf("height = %d, want %d", height, s.Padding)
		}
	})

	t.Run("twelve items make three rows", func(t *testing.T) {
		items := make([]topitems.CanvasItem, 12)
		for i := range items {
			items[i].Title = fmt.Sprintf("Artist %d - Song %d", i, i)
		}

		width, height := c.Geometry(items)

		wantHeight := 3*s.CoverHeight + 4*s.Padding
		if height != wantHeight {
			t.Errorf("height = %d, want %d", height, wantHeight)
		}

		wantWidth := s.CoversPerRow*s.CoverWidth + (s.CoversPerRow+1)*s.Padding +
			maxCaptionWidth(c, items) + 2*s.Padding
		if width != wantWidth {
			t.Errorf("width = %d, want %d", width, wantWidth)
		}
	})
}

func TestCompose(t *testing.T) {
	c := testComposer(t)
	s := c.Settings()

	items := []topitems.CanvasItem{
		{Title: "Mgla - VI"},
		{Title: "Bolt Thrower - The Killchain"},
	}

	red := image.NewRGBA(image.Rect(0, 0, s.CoverWidth, s.CoverHeight))
	for y := 0; y < s.CoverHeight; y++ {
		for x := 0; x < s.CoverWidth; x++ {
			red.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	covers := []image.Image{red, red}

	img := c.Compose(items, covers)

	wantWidth, wantHeight := c.Geometry(items)
	bounds := img.Bounds()
	if bounds.Dx() != wantWidth || bounds.Dy() != wantHeight {
		t.Fatalf("canvas = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), wantWidth, wantHeight)
	}

	// Background outside the grid is the configured color.
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("background pixel = %+v, want black", got)
	}

	// The first cover is pasted at the padded origin of cell (0, 0).
	if got := img.RGBAAt(s.Padding+1, s.Padding+1); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("cover pixel = %+v, want red", got)
	}

	// The second cover starts one cell to the right.
	x := s.Padding + (s.CoverWidth + s.Padding) + 1
	if got := img.RGBAAt(x, s.Padding+1); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("second cover pixel = %+v, want red", got)
	}
}

func TestComposeZeroItems(t *testing.T) {
	c := testComposer(t)

	img := c.Compose(nil, nil)

	wantWidth, wantHeight := c.Geometry(nil)
	bounds := img.Bounds()
	if bounds.Dx() != wantWidth || bounds.Dy() != wantHeight {
		t.Errorf("canvas = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), wantWidth, wantHeight)
	}
}

func TestEncodeJPEG(t *testing.T) {
	c := testComposer(t)

	img := c.Compose([]topitems.CanvasItem{{Title: "Emperor"}}, []image.Image{nil})

	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img); err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}

	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
}

func TestNewComposerMissingFont(t *testing.T) {
	_, err := NewComposer(fstest.MapFS{}, DefaultSettings())
	if !errors.Is(err, ErrFontLoad) {
		t.Errorf("NewComposer() error = %v, want ErrFontLoad", err)
	}
}

func TestNewComposerBadFont(t *testing.T) {
	assets := fstest.MapFS{
		"DejaVuSansMono.ttf": &fstest.MapFile{Data: []byte("not a font")},
	}
	_, err := NewComposer(assets, DefaultSettings())
	if !errors.Is(err, ErrFontLoad) {
		t.Errorf("NewComposer() error = %v, want ErrFontLoad", err)
	}
}
