// Package skymap provides the all-sky raster a render samples from: either
// a grid of tiles read per request or a single full-sphere image loaded at
// startup.
package skymap

import (
	"errors"
	"image"
	"math"
	"sort"

	"github.com/skyview/skyview-reprojection/internal/sky"
	"github.com/skyview/skyview-reprojection/internal/sky/wcs"
)

// The tile grid splits the sphere into 4 declination bands of 45° and 8 RA
// columns of 45°. Row 0 is the northernmost band.
const (
	Rows    = 4
	Cols    = 8
	CellDeg = 45.0
)

var bandCenters = [Rows]float64{67.5, 22.5, -22.5, -67.5}

var errNoCells = errors.New("no tile cells required")

// Cell addresses one tile of the grid.
type Cell struct {
	Row, Col int
}

// CellFor returns the cell holding a sky position. RA wraps modulo 360 and
// Dec is clamped to [-90, 90] before lookup.
func CellFor(ra, dec float64) Cell {
	ra = wcs.NormalizeRA(ra)
	dec = math.Max(-90, math.Min(90, dec))

	col := int(math.Floor(ra / CellDeg))
	if col >= Cols {
		col = Cols - 1
	}

	var row int
	switch {
	case dec >= 45:
		row = 0
	case dec >= 0:
		row = 1
	case dec >= -45:
		row = 2
	default:
		row = 3
	}
	return Cell{Row: row, Col: col}
}

// CornerCells returns the distinct cells under the four corners of a field
// of view, in a stable order.
func CornerCells(center sky.SkyCoordinate, fov sky.FieldOfView) []Cell {
	halfW, halfH := fov.WidthDeg/2, fov.HeightDeg/2

	seen := make(map[Cell]bool, 4)
	var cells []Cell
	for _, dra := range []float64{-halfW, halfW} {
		for _, ddec := range []float64{halfH, -halfH} {
			c := CellFor(center.RA+dra, center.Dec+ddec)
			if !seen[c] {
				seen[c] = true
				cells = append(cells, c)
			}
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	return cells
}

// Span is the rectangle of grid cells a composite covers. Columns run
// eastward from FirstCol and may wrap past column 7 back to 0.
type Span struct {
	MinRow, MaxRow int
	FirstCol       int
	NumCols        int
}

// SpanOf returns the smallest span holding every cell. Columns are chosen
// as the shortest circular run, so a field straddling RA 0 takes columns
// 7 and 0 rather than the whole band.
func SpanOf(cells []Cell) (Span, error) {
	if len(cells) == 0 {
		return Span{}, errNoCells
	}

	s := Span{MinRow: Rows, MaxRow: -1}
	var occupied [Cols]bool
	for _, c := range cells {
		s.MinRow = min(s.MinRow, c.Row)
		s.MaxRow = max(s.MaxRow, c.Row)
		occupied[c.Col] = true
	}

	var cols []int
	for c, ok := range occupied {
		if ok {
			cols = append(cols, c)
		}
	}

	// The gap from the last to the first occupied column gives the plain
	// min..max run; a strictly larger interior gap means wrapping is shorter.
	first, last := cols[0], cols[len(cols)-1]
	bestGap := Cols - 1 - last + first
	s.FirstCol = first
	for i := 0; i+1 < len(cols); i++ {
		if gap := cols[i+1] - cols[i] - 1; gap > bestGap {
			bestGap = gap
			s.FirstCol = cols[i+1]
		}
	}
	s.NumCols = Cols - bestGap
	return s, nil
}

// NumRows is the number of bands in the span.
func (s Span) NumRows() int { return s.MaxRow - s.MinRow + 1 }

// Contains reports whether the cell lies inside the span.
func (s Span) Contains(c Cell) bool {
	if c.Row < s.MinRow || c.Row > s.MaxRow {
		return false
	}
	return (c.Col-s.FirstCol+Cols)%Cols < s.NumCols
}

// Offset returns the top-left pixel of a cell inside the composite. RA
// decreases to the right, so the easternmost column is pasted leftmost.
func (s Span) Offset(c Cell, tileSize int) image.Point {
	k := (c.Col - s.FirstCol + Cols) % Cols
	return image.Pt((s.NumCols-1-k)*tileSize, (c.Row-s.MinRow)*tileSize)
}

// Center is the sky position at the middle of the span.
func (s Span) Center() sky.SkyCoordinate {
	var dec float64
	for r := s.MinRow; r <= s.MaxRow; r++ {
		dec += bandCenters[r]
	}
	return sky.SkyCoordinate{
		RA:  wcs.NormalizeRA(float64(s.FirstCol)*CellDeg + float64(s.NumCols)*CellDeg/2),
		Dec: dec / float64(s.NumRows()),
	}
}

// Projection is the plate carrée definition of a composite built from the
// span with square tiles of tileSize pixels.
func (s Span) Projection(tileSize int) wcs.Definition {
	c := s.Center()
	scale := CellDeg / float64(tileSize)
	return wcs.Centered(wcs.Plate, s.NumCols*tileSize, s.NumRows()*tileSize, c.RA, c.Dec, -scale, scale)
}

// FullSphereRect returns where a cell lies in a full-sphere plate carrée
// image of the given size whose center is RA 0, Dec 0 and whose left edge
// is RA 180.
func FullSphereRect(c Cell, width, height int) image.Rectangle {
	// Left edge of the cell is its eastern boundary.
	east := float64(c.Col+1) * CellDeg
	x0 := int(math.Round(wcs.NormalizeRA(180-east) / 360 * float64(width)))
	x1 := int(math.Round((wcs.NormalizeRA(180-east) + CellDeg) / 360 * float64(width)))
	y0 := c.Row * height / Rows
	y1 := (c.Row + 1) * height / Rows
	return image.Rect(x0, y0, x1, y1)
}

// FullSphereProjection is the plate carrée definition of a full-sphere image.
func FullSphereProjection(width, height int) wcs.Definition {
	return wcs.Centered(wcs.Plate, width, height, 0, 0, -360/float64(width), 180/float64(height))
}
