package skymap

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"time"

	"github.com/skyview/skyview-reprojection/internal/raster"
	"github.com/skyview/skyview-reprojection/internal/sky"
)

// Preloaded serves a full-sphere map decoded once at startup. It is
// immutable after LoadPreloaded returns; a failed load leaves it
// permanently unavailable.
type Preloaded struct {
	path   string
	source *sky.SourceRaster
	err    error
}

// LoadPreloaded reads and decodes the full-sphere map at path. A load
// failure is recorded, not returned: the process keeps serving everything
// but renders.
func LoadPreloaded(path string) *Preloaded {
	start := time.Now()
	p := &Preloaded{path: path}

	img, err := DecodeFile(path)
	if err != nil {
		p.err = err
		log.Printf("ERROR: sky map %s could not be loaded; renders are disabled: %v", path, err)
		return p
	}

	b := img.Bounds()
	p.source = &sky.SourceRaster{
		Pixels:     raster.Split(img),
		Projection: FullSphereProjection(b.Dx(), b.Dy()),
	}
	log.Printf("INFO: sky map %s loaded (%dx%d) in %s", path, b.Dx(), b.Dy(), time.Since(start).Round(time.Millisecond))
	return p
}

// NewPreloaded wraps an already decoded full-sphere image.
func NewPreloaded(img image.Image) *Preloaded {
	b := img.Bounds()
	return &Preloaded{
		path: "memory",
		source: &sky.SourceRaster{
			Pixels:     raster.Split(img),
			Projection: FullSphereProjection(b.Dx(), b.Dy()),
		},
	}
}

func (p *Preloaded) Mode() string { return "preloaded" }

func (p *Preloaded) Ready() error {
	if p.source == nil {
		return sky.Unavailable(p.err, "sky map %s is not loaded", p.path)
	}
	return nil
}

// Prepare returns the whole map; the reprojector only reads what the field
// of view covers.
func (p *Preloaded) Prepare(ctx context.Context, center sky.SkyCoordinate, fov sky.FieldOfView) (*sky.SourceRaster, error) {
	if err := p.Ready(); err != nil {
		return nil, err
	}
	return p.source, nil
}

// DecodeFile reads a sky map image in any registered format (JPEG, PNG,
// TIFF, WebP).
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	if b.Dx() < 2 || b.Dy() < 2 {
		return nil, fmt.Errorf("%s: %dx%d is too small for a sky map", path, b.Dx(), b.Dy())
	}
	return img, nil
}
