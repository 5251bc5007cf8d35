// Package raster holds 8-bit single-channel image planes and the helpers to
// move between them and Go's image types.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// edgeSlack absorbs round-off in coordinates that land on the outer samples.
const edgeSlack = 1e-6

// A Plane is one color channel of a raster, stored top row first.
type Plane struct {
	stride int
	height int
	Pix    []uint8
}

func NewPlane(w, h int) Plane {
	return Plane{
		stride: w,
		height: h,
		Pix:    make([]uint8, w*h),
	}
}

func (p *Plane) Dx() int { return p.stride }
func (p *Plane) Dy() int { return p.height }
func (p *Plane) Get(x, y int) uint8 { return p.Pix[p.stride*y+x] }
func (p *Plane) Set(x, y int, v uint8) { p.Pix[p.stride*y+x] = v }
func (p *Plane) Row(y int) []uint8 { return p.Pix[p.stride*y : p.stride*(y+1)] }
func (p *Plane) Empty() bool { return p.stride == 0 || p.height == 0 }
func (p *Plane) String() string { return fmt.Sprintf("plane[%dx%d]", p.stride, p.height) }
func (p *Plane) Bounds() image.Rectangle { return image.Rect(0, 0, p.stride, p.height) }
func (p *Plane) SameSize(q *Plane) bool { return p.stride == q.stride && p.height == q.height }

// Bilinear samples the plane at fractional column x and row y. ok is false
// outside the sample grid [0, w-1]×[0, h-1]; on its last row and column the
// missing neighbor is the edge sample itself.
func (p *Plane) Bilinear(x, y float64) (v float64, ok bool) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	maxX, maxY := float64(p.stride-1), float64(p.height-1)
	if x < -edgeSlack || y < -edgeSlack || x > maxX+edgeSlack || y > maxY+edgeSlack {
		return 0, false
	}
	x = math.Min(math.Max(x, 0), maxX)
	y = math.Min(math.Max(y, 0), maxY)

	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 > p.stride-1 {
		x1 = x0
	}
	if y1 > p.height-1 {
		y1 = y0
	}
	fx, fy := x-float64(x0), y-float64(y0)

	top := float64(p.Get(x0, y0))*(1-fx) + float64(p.Get(x1, y0))*fx
	bot := float64(p.Get(x0, y1))*(1-fx) + float64(p.Get(x1, y1))*fx
	return top*(1-fy) + bot*fy, true
}

// Clamp8 rounds v into the 8-bit sample range. NaN becomes 0.
func Clamp8(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}

// RGB is a three plane raster.
type RGB [3]Plane

func NewRGB(w, h int) RGB {
	return RGB{NewPlane(w, h), NewPlane(w, h), NewPlane(w, h)}
}

func (r *RGB) Dx() int { return r[0].Dx() }
func (r *RGB) Dy() int { return r[0].Dy() }

// Split separates an image into red, green and blue planes, dropping alpha.
func Split(img image.Image) RGB {
	b := img.Bounds()
	out := NewRGB(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+4*b.Dx()]
			for x := 0; x < b.Dx(); x++ {
				out[0].Set(x, y, row[4*x])
				out[1].Set(x, y, row[4*x+1])
				out[2].Set(x, y, row[4*x+2])
			}
		}
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+4*b.Dx()]
			for x := 0; x < b.Dx(); x++ {
				out[0].Set(x, y, row[4*x])
				out[1].Set(x, y, row[4*x+1])
				out[2].Set(x, y, row[4*x+2])
			}
		}
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()]
			copy(out[0].Row(y), row)
			copy(out[1].Row(y), row)
			copy(out[2].Row(y), row)
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
				out[0].Set(x, y, c.R)
				out[1].Set(x, y, c.G)
				out[2].Set(x, y, c.B)
			}
		}
	}

	return out
}

// Image packs the planes into an opaque RGBA image.
func (r *RGB) Image() *image.RGBA {
	w, h := r.Dx(), r.Dy()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+4*w]
		rr, gg, bb := r[0].Row(y), r[1].Row(y), r[2].Row(y)
		for x := 0; x < w; x++ {
			row[4*x] = rr[x]
			row[4*x+1] = gg[x]
			row[4*x+2] = bb[x]
			row[4*x+3] = 0xFF
		}
	}
	return img
}
