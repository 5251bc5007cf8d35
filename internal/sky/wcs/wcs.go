// Package wcs maps between raster pixel coordinates and sky coordinates for
// the two projections the renderer uses: plate carrée (CAR) for stored sky
// maps and gnomonic (TAN) for rendered camera frames.
//
// Pixel coordinates follow the FITS convention: the reference pixel is
// 1-based and pixel y grows with declination, so y=0 is the bottom row of a
// raster. Rasters in this module are stored top row first; callers convert
// with Row.
package wcs

import (
	"errors"
	"fmt"
	"math"
)

// Family tags the projection used by a Definition.
type Family string

const (
	Plate    Family = "CAR"
	Gnomonic Family = "TAN"
)

const (
	degPerRad = 180 / math.Pi
	radPerDeg = math.Pi / 180
)

// ErrInvalid is wrapped by every error Validate returns.
var ErrInvalid = errors.New("invalid projection definition")

// Definition is a two-axis world coordinate system: axis 1 is RA, axis 2 Dec.
type Definition struct {
	CRPix  [2]float64 // reference pixel, 1-based
	CRVal  [2]float64 // RA, Dec at the reference pixel, degrees
	CDelt  [2]float64 // degrees per pixel, RA axis usually negative
	Family Family
}

// Centered returns a definition whose reference pixel is the center of a
// width×height raster.
func Centered(family Family, width, height int, ra, dec, scaleX, scaleY float64) Definition {
	return Definition{
		CRPix:  [2]float64{(float64(width) + 1) / 2, (float64(height) + 1) / 2},
		CRVal:  [2]float64{ra, dec},
		CDelt:  [2]float64{scaleX, scaleY},
		Family: family,
	}
}

// Validate rejects definitions the transforms cannot work with.
func (d Definition) Validate() error {
	for i := 0; i < 2; i++ {
		for _, v := range []float64{d.CRPix[i], d.CRVal[i], d.CDelt[i]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value on axis %d", ErrInvalid, i+1)
			}
		}
		if d.CDelt[i] == 0 {
			return fmt.Errorf("%w: zero pixel scale on axis %d", ErrInvalid, i+1)
		}
	}
	if d.CRVal[1] < -90 || d.CRVal[1] > 90 {
		return fmt.Errorf("%w: reference declination %.4f out of range", ErrInvalid, d.CRVal[1])
	}
	switch d.Family {
	case Plate, Gnomonic:
	default:
		return fmt.Errorf("%w: unsupported projection family %q", ErrInvalid, d.Family)
	}
	return nil
}

// PixelToWorld converts 0-based pixel (x, y) to RA/Dec in degrees. ok is
// false when the pixel has no position on the sphere.
func (d Definition) PixelToWorld(x, y float64) (ra, dec float64, ok bool) {
	return d.Mapper().PixelToWorld(x, y)
}

// WorldToPixel converts RA/Dec in degrees to 0-based pixel (x, y). ok is
// false when the position cannot be projected.
func (d Definition) WorldToPixel(ra, dec float64) (x, y float64, ok bool) {
	return d.Mapper().WorldToPixel(ra, dec)
}

// Mapper is a Definition with the trigonometry of its reference point
// precomputed, for per-pixel use.
type Mapper struct {
	Definition
	c, e, n [3]float64 // tangent point, unit east, unit north
}

// Mapper precomputes the reference point basis.
func (d Definition) Mapper() Mapper {
	a0, d0 := d.CRVal[0]*radPerDeg, d.CRVal[1]*radPerDeg
	sa, ca := math.Sin(a0), math.Cos(a0)
	sd, cd := math.Sin(d0), math.Cos(d0)

	return Mapper{
		Definition: d,
		c:          [3]float64{cd * ca, cd * sa, sd},
		e:          [3]float64{-sa, ca, 0},
		n:          [3]float64{-sd * ca, -sd * sa, cd},
	}
}

// PixelToWorld converts 0-based pixel (x, y) to RA/Dec in degrees.
func (m Mapper) PixelToWorld(x, y float64) (ra, dec float64, ok bool) {
	ix := m.CDelt[0] * (x + 1 - m.CRPix[0])
	iy := m.CDelt[1] * (y + 1 - m.CRPix[1])

	switch m.Family {
	case Plate:
		dec = m.CRVal[1] + iy
		if dec < -90 || dec > 90 {
			return 0, 0, false
		}
		return NormalizeRA(m.CRVal[0] + ix), dec, true
	case Gnomonic:
		ra, dec = m.tanInverse(ix*radPerDeg, iy*radPerDeg)
		return ra, dec, true
	}
	return 0, 0, false
}

// WorldToPixel converts RA/Dec in degrees to 0-based pixel (x, y).
func (m Mapper) WorldToPixel(ra, dec float64) (x, y float64, ok bool) {
	var ix, iy float64

	switch m.Family {
	case Plate:
		if dec < -90 || dec > 90 {
			return 0, 0, false
		}
		ix = wrap180(ra - m.CRVal[0])
		iy = dec - m.CRVal[1]
	case Gnomonic:
		xi, eta, front := m.tanForward(ra, dec)
		if !front {
			return 0, 0, false
		}
		ix, iy = xi*degPerRad, eta*degPerRad
	default:
		return 0, 0, false
	}

	return ix/m.CDelt[0] + m.CRPix[0] - 1, iy/m.CDelt[1] + m.CRPix[1] - 1, true
}

// Row converts a FITS pixel y into a raster row index for a raster of the
// given height stored top row first. It is its own inverse.
func Row(y float64, height int) float64 {
	return float64(height-1) - y
}

// tanInverse maps standard coordinates (radians) on the tangent plane back
// onto the sphere.
func (m Mapper) tanInverse(xi, eta float64) (ra, dec float64) {
	var v [3]float64
	for i := range v {
		v[i] = m.c[i] + xi*m.e[i] + eta*m.n[i]
	}
	r := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	dec = math.Asin(v[2]/r) * degPerRad
	ra = NormalizeRA(math.Atan2(v[1], v[0]) * degPerRad)
	return ra, dec
}

// tanForward projects a sky position onto the tangent plane. front is false
// for positions 90° or more from the tangent point.
func (m Mapper) tanForward(ra, dec float64) (xi, eta float64, front bool) {
	a, dd := ra*radPerDeg, dec*radPerDeg
	v := [3]float64{math.Cos(dd) * math.Cos(a), math.Cos(dd) * math.Sin(a), math.Sin(dd)}

	cosc := dot(v, m.c)
	if cosc <= 1e-12 {
		return 0, 0, false
	}
	return dot(v, m.e) / cosc, dot(v, m.n) / cosc, true
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// NormalizeRA wraps an angle in degrees into [0, 360).
func NormalizeRA(ra float64) float64 {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	if ra >= 360 {
		ra = 0
	}
	return ra
}

// wrap180 wraps an angle difference in degrees into [-180, 180).
func wrap180(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}
