package canvas

import (
	"fmt"
	"image"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// DefaultAccent is used when a dominant color cannot be extracted.
const DefaultAccent = "#444444"

const (
	paletteClusters   = 5
	paletteMaxSamples = 4096
)

// DominantColor estimates the most prominent color of img by k-means
// clustering a downsampled set of pixels in RGB space. It is used for
// showcase accent metadata only; any failure returns DefaultAccent.
func DominantColor(img image.Image) string {
	bounds := img.Bounds()
	if bounds.Empty() {
		return DefaultAccent
	}

	// Sample on a stride grid so huge canvases stay cheap.
	stride := 1
	for (bounds.Dx()/stride)*(bounds.Dy()/stride) > paletteMaxSamples {
		stride++
	}

	var obs clusters.Observations
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, _ := img.At(x, y).RGBA()
			obs = append(obs, clusters.Coordinates{
				float64(r >> 8),
				float64(g >> 8),
				float64(b >> 8),
			})
		}
	}

	if len(obs) < paletteClusters {
		return DefaultAccent
	}

	km := kmeans.New()
	result, err := km.Partition(obs, paletteClusters)
	if err != nil {
		return DefaultAccent
	}

	var best *clusters.Cluster
	for i := range result {
		if best == nil || len(result[i].Observations) > len(best.Observations) {
			best = &result[i]
		}
	}
	if best == nil || len(best.Center) < 3 {
		return DefaultAccent
	}

	return fmt.Sprintf("#%02x%02x%02x",
		clamp8(best.Center[0]),
		clamp8(best.Center[1]),
		clamp8(best.Center[2]),
	)
}

func clamp8(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
