/*
Copyright © 2026 the PyLag authors.
This file is part of PyLag.

PyLag is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PyLag is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PyLag.  If not, see <http://www.gnu.org/licenses/>.
*/

package pylag

import (
	"fmt"
	"sort"

	"github.com/ctessum/sparse"
)

// rectAxis is one monotonically increasing coordinate axis of a structured
// grid.
type rectAxis []float64

// cell returns the index i of the interval [a[i], a[i+1]] containing v, or
// -1 when v lies outside the axis range.
func (a rectAxis) cell(v float64) int {
	if v < a[0] || v > a[len(a)-1] {
		return -1
	}
	i := sort.SearchFloat64s(a, v)
	if i > 0 {
		i--
	}
	if i > len(a)-2 {
		i = len(a) - 2
	}
	return i
}

// weight returns the linear interpolation weight of v toward a[i+1] within
// interval i.
func (a rectAxis) weight(v float64, i int) float64 {
	return (v - a[i]) / (a[i+1] - a[i])
}

// rectGrid is the horizontal topology shared by the structured-mesh
// readers: two monotone axes, a per-node land mask and cells numbered
// row-major between nodes.
type rectGrid struct {
	lon, lat rectAxis
	nx, ny   int
	land     []bool // per node, row-major (lat, lon)
}

// cellIndex flattens a cell (i, j) to its host element index.
func (g *rectGrid) cellIndex(i, j int) int { return j*(g.nx-1) + i }

// cellAt splits a host element index back into (i, j).
func (g *rectGrid) cellAt(elem int) (i, j int) {
	return elem % (g.nx - 1), elem / (g.nx - 1)
}

// NElems returns the number of grid cells.
func (g *rectGrid) NElems() int { return (g.nx - 1) * (g.ny - 1) }

// waterCell reports whether all four corner nodes of cell (i, j) are wet.
func (g *rectGrid) waterCell(i, j int) bool {
	if i < 0 || j < 0 || i > g.nx-2 || j > g.ny-2 {
		return false
	}
	return !g.land[j*g.nx+i] && !g.land[j*g.nx+i+1] &&
		!g.land[(j+1)*g.nx+i] && !g.land[(j+1)*g.nx+i+1]
}

// findCell locates the wet cell containing (x, y), or HostNotFound.
func (g *rectGrid) findCell(x, y float64) int {
	i, j := g.lon.cell(x), g.lat.cell(y)
	if i < 0 || j < 0 || !g.waterCell(i, j) {
		return HostNotFound
	}
	return g.cellIndex(i, j)
}

// nodal interpolates a node-centered (lat, lon) plane at (x, y) within cell
// elem.
func (g *rectGrid) nodal(get func(j, i int) float64, x, y float64, elem int) float64 {
	i, j := g.cellAt(elem)
	fx := g.lon.weight(x, i)
	fy := g.lat.weight(y, j)
	return (1-fy)*((1-fx)*get(j, i)+fx*get(j, i+1)) +
		fy*((1-fx)*get(j+1, i)+fx*get(j+1, i+1))
}

// boundaryWalk traces the segment cell by cell; the first transition from a
// wet cell into a land cell or out of the grid yields the crossed cell edge.
func (g *rectGrid) boundaryWalk(xOld, yOld, xNew, yNew float64, elem int) (BoundaryCrossing, bool) {
	checkElem(elem, g.NElems())
	i, j := g.cellAt(elem)
	px, py := xOld, yOld
	for hop := 0; hop < g.nx+g.ny; hop++ {
		tBest, side := 2.0, -1
		faces := []struct {
			side int
			t    float64
		}{
			{0, paramTo(px, xNew-px, g.lon[i])},   // west
			{1, paramTo(px, xNew-px, g.lon[i+1])}, // east
			{2, paramTo(py, yNew-py, g.lat[j])},   // south
			{3, paramTo(py, yNew-py, g.lat[j+1])}, // north
		}
		for _, fc := range faces {
			if fc.t > 1e-12 && fc.t <= 1 && fc.t < tBest {
				tBest, side = fc.t, fc.side
			}
		}
		if side < 0 {
			return BoundaryCrossing{}, false // segment ends inside the cell
		}
		xi := px + tBest*(xNew-px)
		yi := py + tBest*(yNew-py)
		ni, nj := i, j
		switch side {
		case 0:
			ni--
		case 1:
			ni++
		case 2:
			nj--
		case 3:
			nj++
		}
		if !g.waterCell(ni, nj) {
			var x1, y1, x2, y2 float64
			switch side {
			case 0:
				x1, y1, x2, y2 = g.lon[i], g.lat[j], g.lon[i], g.lat[j+1]
			case 1:
				x1, y1, x2, y2 = g.lon[i+1], g.lat[j], g.lon[i+1], g.lat[j+1]
			case 2:
				x1, y1, x2, y2 = g.lon[i], g.lat[j], g.lon[i+1], g.lat[j]
			case 3:
				x1, y1, x2, y2 = g.lon[i], g.lat[j+1], g.lon[i+1], g.lat[j+1]
			}
			return BoundaryCrossing{X1: x1, Y1: y1, X2: x2, Y2: y2, Xi: xi, Yi: yi, Elem: g.cellIndex(i, j)}, true
		}
		i, j = ni, nj
		px, py = xi, yi
	}
	return BoundaryCrossing{}, false
}

// loadAxis reads a 1-D coordinate variable and verifies monotonicity.
func loadAxis(med Mediator, name string) (rectAxis, error) {
	a, err := med.GridVariable(name)
	if err != nil {
		return nil, err
	}
	ax := append(rectAxis{}, a.Elements...)
	for i := 1; i < len(ax); i++ {
		if ax[i] <= ax[i-1] {
			return nil, fmt.Errorf("pylag: axis %s is not strictly increasing", name)
		}
	}
	return ax, nil
}

// arakawaSnap is one cached snapshot of the time-dependent variables on a
// regular grid.
type arakawaSnap struct {
	idx     int
	u, v, w *sparse.DenseArray // (depth, lat, lon)
	zeta    *sparse.DenseArray // (lat, lon)
}

// ArakawaAReader interpolates fields on a regular grid with all variables
// colocated at nodes. Host search reduces to axis bisection. The vertical
// coordinate is depth in meters, increasing downward from the surface.
type ArakawaAReader struct {
	med Mediator
	rectGrid

	depth rectAxis
	h     *sparse.DenseArray // (lat, lon)

	tc     timeCache
	s0, s1 *arakawaSnap
}

// NewArakawaAReader creates a reader for the regular grid described by med.
// The grid file supplies axes lon, lat and depth, nodal bathymetry h, and an
// integer land mask (nonzero = land).
func NewArakawaAReader(med Mediator) (*ArakawaAReader, error) {
	r := &ArakawaAReader{med: med}
	var err error
	if r.lon, err = loadAxis(med, "longitude"); err != nil {
		return nil, err
	}
	if r.lat, err = loadAxis(med, "latitude"); err != nil {
		return nil, err
	}
	if r.depth, err = loadAxis(med, "depth"); err != nil {
		return nil, err
	}
	r.nx, r.ny = len(r.lon), len(r.lat)
	if r.h, err = med.GridVariable("h"); err != nil {
		return nil, err
	}
	mask, err := med.GridIntVariable("mask")
	if err != nil {
		return nil, err
	}
	r.land = make([]bool, len(mask))
	for i, m := range mask {
		r.land[i] = m != 0
	}
	return r, nil
}

// FindHost implements DataReader. The guess is ignored: axis bisection
// locates the cell directly.
func (r *ArakawaAReader) FindHost(x, y float64, guess int) int {
	return r.findCell(x, y)
}

// UpdateTimeVars implements DataReader.
func (r *ArakawaAReader) UpdateTimeVars(t float64) error {
	br, err := r.med.UpdateTimeVars(t)
	if err != nil {
		return err
	}
	s0, err := r.snapshot(br.I0)
	if err != nil {
		return err
	}
	s1, err := r.snapshot(br.I1)
	if err != nil {
		return err
	}
	r.s0, r.s1 = s0, s1
	r.tc = timeCache{TimeBracket: br, valid: true}
	return nil
}

func (r *ArakawaAReader) snapshot(idx int) (*arakawaSnap, error) {
	for _, s := range []*arakawaSnap{r.s0, r.s1} {
		if s != nil && s.idx == idx {
			return s, nil
		}
	}
	s := &arakawaSnap{idx: idx}
	var err error
	if s.u, err = r.med.FieldAt("u", idx); err != nil {
		return nil, err
	}
	if s.v, err = r.med.FieldAt("v", idx); err != nil {
		return nil, err
	}
	if s.w, err = r.med.FieldAt("w", idx); err != nil {
		return nil, err
	}
	if s.zeta, err = r.med.FieldAt("zeta", idx); err != nil {
		return nil, err
	}
	return s, nil
}

// Bathymetry implements DataReader.
func (r *ArakawaAReader) Bathymetry(x, y float64, elem int) float64 {
	checkElem(elem, r.NElems())
	return r.nodal(func(j, i int) float64 { return r.h.Get(j, i) }, x, y, elem)
}

// SurfaceElevation implements DataReader.
func (r *ArakawaAReader) SurfaceElevation(t, x, y float64, elem int) float64 {
	checkElem(elem, r.NElems())
	f := r.tc.frac(t)
	z0 := r.nodal(func(j, i int) float64 { return r.s0.zeta.Get(j, i) }, x, y, elem)
	z1 := r.nodal(func(j, i int) float64 { return r.s1.zeta.Get(j, i) }, x, y, elem)
	return (1-f)*z0 + f*z1
}

// Velocity implements DataReader. z is depth in meters below the surface.
// Velocities at land nodes contribute zero, which enforces no-slip toward
// masked neighbors of partially wet cells.
func (r *ArakawaAReader) Velocity(t, x, y, z float64, elem int) (u, v, w float64) {
	checkElem(elem, r.NElems())
	f := r.tc.frac(t)
	k := r.depth.cell(z)
	kNext, fz := k, 0.0
	switch {
	case k < 0 && z < r.depth[0]:
		k, kNext = 0, 0
	case k < 0:
		k, kNext = len(r.depth)-1, len(r.depth)-1
	default:
		kNext = k + 1
		fz = r.depth.weight(z, k)
	}
	sample := func(arr *sparse.DenseArray, level int) float64 {
		return r.nodal(func(j, i int) float64 {
			if r.land[j*r.nx+i] {
				return 0
			}
			return arr.Get(level, j, i)
		}, x, y, elem)
	}
	interp := func(a0, a1 *sparse.DenseArray) float64 {
		v0 := (1-fz)*sample(a0, k) + fz*sample(a0, kNext)
		v1 := (1-fz)*sample(a1, k) + fz*sample(a1, kNext)
		return (1-f)*v0 + f*v1
	}
	return interp(r.s0.u, r.s1.u), interp(r.s0.v, r.s1.v), interp(r.s0.w, r.s1.w)
}

// BoundaryIntersection implements DataReader.
func (r *ArakawaAReader) BoundaryIntersection(xOld, yOld, xNew, yNew float64, elem int) (BoundaryCrossing, bool) {
	return r.boundaryWalk(xOld, yOld, xNew, yNew, elem)
}

// paramTo returns the parameter t at which p + t*d reaches target, or an
// out-of-range value when d is zero.
func paramTo(p, d, target float64) float64 {
	if d == 0 {
		return 2
	}
	return (target - p) / d
}
