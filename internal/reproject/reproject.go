// Package reproject resamples rasters from one sky projection into another.
package reproject

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/skyview/skyview-reprojection/internal/raster"
	"github.com/skyview/skyview-reprojection/internal/sky/wcs"
)

// Fill is the sample written where the source has no data.
const Fill uint8 = 0

// Options tunes the resampling loop.
type Options struct {
	// Workers is the number of row bands processed concurrently. Zero means
	// GOMAXPROCS.
	Workers int
}

// Planes resamples every plane of src, defined by srcDef, into a raster of
// width×height defined by dstDef. Each plane is interpolated on its own
// against the same pixel mapping, so channels stay registered without
// bleeding into each other.
func Planes(ctx context.Context, src []raster.Plane, srcDef, dstDef wcs.Definition, width, height int, opts Options) ([]raster.Plane, error) {
	if err := srcDef.Validate(); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if err := dstDef.Validate(); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("output shape %dx%d: %w", width, height, wcs.ErrInvalid)
	}
	for i := 1; i < len(src); i++ {
		if !src[i].SameSize(&src[0]) {
			return nil, fmt.Errorf("plane %d is %s, plane 0 is %s", i, src[i].String(), src[0].String())
		}
	}

	out := make([]raster.Plane, len(src))
	for i := range out {
		out[i] = raster.NewPlane(width, height)
	}
	if len(src) == 0 || src[0].Empty() {
		return out, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > height {
		workers = height
	}

	srcMap, dstMap := srcDef.Mapper(), dstDef.Mapper()
	srcH := src[0].Dy()

	rows := make(chan int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range rows {
				resampleRow(row, src, out, srcMap, dstMap, srcH, height)
			}
		}()
	}

	var err error
	for row := 0; row < height; row++ {
		if err = ctx.Err(); err != nil {
			break
		}
		rows <- row
	}
	close(rows)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return out, nil
}

// RGB is Planes for a three channel raster.
func RGB(ctx context.Context, src raster.RGB, srcDef, dstDef wcs.Definition, width, height int, opts Options) (raster.RGB, error) {
	planes, err := Planes(ctx, src[:], srcDef, dstDef, width, height, opts)
	if err != nil {
		return raster.RGB{}, err
	}
	return raster.RGB{planes[0], planes[1], planes[2]}, nil
}

func resampleRow(row int, src, out []raster.Plane, srcMap, dstMap wcs.Mapper, srcH, dstH int) {
	y := wcs.Row(float64(row), dstH)
	width := out[0].Dx()

	for x := 0; x < width; x++ {
		ra, dec, ok := dstMap.PixelToWorld(float64(x), y)
		if !ok {
			continue
		}
		sx, sy, ok := srcMap.WorldToPixel(ra, dec)
		if !ok {
			continue
		}
		srow := wcs.Row(sy, srcH)

		for c := range src {
			v, ok := src[c].Bilinear(sx, srow)
			if !ok {
				continue
			}
			out[c].Set(x, row, raster.Clamp8(v))
		}
	}
}
