package skymap

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Split cuts a full-sphere plate carrée image into the tile grid read by
// Tiled, writing one file per cell into dir. The encoder follows the
// extension of pattern. Tiles are rescaled to tileSize when the image is
// not exactly 8·tileSize × 4·tileSize.
func Split(img image.Image, dir, pattern string, tileSize int) error {
	if tileSize <= 0 {
		return fmt.Errorf("tile size %d is not positive", tileSize)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	b := img.Bounds()
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			r := FullSphereRect(Cell{Row: row, Col: col}, b.Dx(), b.Dy()).Add(b.Min)

			tile := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
			if r.Dx() == tileSize && r.Dy() == tileSize {
				xdraw.Draw(tile, tile.Bounds(), img, r.Min, xdraw.Src)
			} else {
				xdraw.CatmullRom.Scale(tile, tile.Bounds(), img, r, xdraw.Src, nil)
			}

			path := filepath.Join(dir, fmt.Sprintf(pattern, row, col))
			if err := save(path, tile); err != nil {
				return err
			}
			log.Printf("INFO: wrote tile %d,%d to %s", row, col, path)
		}
	}
	return nil
}

func save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = png.Encode(f, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = fmt.Errorf("unsupported tile format %q", ext)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
