package showcase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ImageDir stores published report-card JPEGs on disk. Filenames are
// random UUIDs so they never collide or leak caller information.
type ImageDir struct {
	dir string
}

// NewImageDir creates the directory if needed.
func NewImageDir(dir string) (*ImageDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating images directory: %w", err)
	}
	return &ImageDir{dir: dir}, nil
}

// Path returns the directory images are stored in.
func (d *ImageDir) Path() string {
	return d.dir
}

// Save writes data as a new JPEG file and returns its filename.
func (d *ImageDir) Save(data []byte) (string, error) {
	filename := uuid.NewString() + ".jpg"
	if err := os.WriteFile(filepath.Join(d.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("writing image file: %w", err)
	}
	return filename, nil
}
