package skymap

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/skyview/skyview-reprojection/internal/metrics"
	"github.com/skyview/skyview-reprojection/internal/raster"
	"github.com/skyview/skyview-reprojection/internal/sky"
)

// DefaultPattern names tile files by row and column.
const DefaultPattern = "skymap_tile_%d_%d.jpg"

// Tiled assembles the cells under a field of view from tile files on every
// request. Nothing is cached between requests.
type Tiled struct {
	dir      string
	pattern  string
	tileSize int
}

// NewTiled creates a tiled source reading tiles of tileSize pixels from dir.
// pattern takes the row then the column.
func NewTiled(dir, pattern string, tileSize int) *Tiled {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Tiled{
		dir:      dir,
		pattern:  pattern,
		tileSize: tileSize,
	}
}

func (t *Tiled) Mode() string { return "tiled" }

// Ready always succeeds: absent tiles render as blank sky.
func (t *Tiled) Ready() error { return nil }

// TilePath returns the file backing a cell.
func (t *Tiled) TilePath(c Cell) string {
	return filepath.Join(t.dir, fmt.Sprintf(t.pattern, c.Row, c.Col))
}

// Prepare builds the composite of the corner cells of the field of view.
// Cells of the bounding span that no corner falls in stay zero, as do cells
// whose tile file does not exist.
func (t *Tiled) Prepare(ctx context.Context, center sky.SkyCoordinate, fov sky.FieldOfView) (*sky.SourceRaster, error) {
	if t.tileSize <= 0 {
		return nil, sky.Internal(nil, "tile size %d is not positive", t.tileSize)
	}

	cells := CornerCells(center, fov)
	span, err := SpanOf(cells)
	if err != nil {
		return nil, sky.Internal(err, "could not determine required tiles")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, span.NumCols*t.tileSize, span.NumRows()*t.tileSize))
	for _, c := range cells {
		if err := ctx.Err(); err != nil {
			return nil, sky.Internal(err, "tile assembly")
		}

		tile, err := t.loadTile(c)
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("DEBUG: tile %d,%d not found at %s; leaving blank", c.Row, c.Col, t.TilePath(c))
			metrics.ObserveTile("missing")
			continue
		}
		if err != nil {
			metrics.ObserveTile("error")
			return nil, sky.Internal(err, "tile %d,%d", c.Row, c.Col)
		}
		metrics.ObserveTile("loaded")

		off := span.Offset(c, t.tileSize)
		dst := image.Rect(off.X, off.Y, off.X+t.tileSize, off.Y+t.tileSize)
		xdraw.Draw(canvas, dst, tile, tile.Bounds().Min, xdraw.Src)
	}

	return &sky.SourceRaster{
		Pixels:     raster.Split(canvas),
		Projection: span.Projection(t.tileSize),
	}, nil
}

// loadTile decodes one tile, rescaling it when it is not tileSize square.
func (t *Tiled) loadTile(c Cell) (image.Image, error) {
	f, err := os.Open(t.TilePath(c))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Name(), err)
	}

	b := img.Bounds()
	if b.Dx() == t.tileSize && b.Dy() == t.tileSize {
		return img, nil
	}
	log.Printf("WARN: tile %s is %dx%d, rescaling to %d", f.Name(), b.Dx(), b.Dy(), t.tileSize)
	scaled := image.NewRGBA(image.Rect(0, 0, t.tileSize, t.tileSize))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)
	return scaled, nil
}
