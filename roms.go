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
	"github.com/ctessum/sparse"
)

// clampCell is like cell but clamps positions outside the axis range to the
// nearest interval, returning the interval index and the weight toward its
// upper node.
func (a rectAxis) clampCell(v float64) (int, float64) {
	if v <= a[0] {
		return 0, 0
	}
	if v >= a[len(a)-1] {
		return len(a) - 2, 1
	}
	i := a.cell(v)
	return i, a.weight(v, i)
}

// romsSnap is one cached snapshot of the ROMS time-dependent variables.
type romsSnap struct {
	idx  int
	u    *sparse.DenseArray // (s_rho, eta_rho, xi_u)
	v    *sparse.DenseArray // (s_rho, eta_v, xi_rho)
	w    *sparse.DenseArray // (s_w, eta_rho, xi_rho)
	zeta *sparse.DenseArray // (eta_rho, xi_rho)
}

// ROMSReader interpolates fields on a rectilinear Arakawa C-grid. Scalars
// live at rho points; u and v are staggered half a cell in x and y, and the
// vertical velocity sits on the s_w level interfaces. The vertical
// coordinate is the terrain-following s-coordinate in [-1, 0].
type ROMSReader struct {
	med Mediator
	rectGrid // rho-point axes and mask

	lonU rectAxis // u-point x positions, nx-1 entries
	latV rectAxis // v-point y positions, ny-1 entries
	sRho rectAxis // layer midpoints, increasing toward the surface
	sW   rectAxis // layer interfaces

	h *sparse.DenseArray // (eta_rho, xi_rho)

	tc     timeCache
	s0, s1 *romsSnap
}

// NewROMSReader creates a reader for the C-grid described by med. The grid
// file supplies rho-point axes lon_rho and lat_rho, the s-coordinate levels
// s_rho and s_w, bathymetry h and the land mask mask_rho (nonzero = land).
// The staggered u- and v-point axes are derived as rho-axis midpoints.
func NewROMSReader(med Mediator) (*ROMSReader, error) {
	r := &ROMSReader{med: med}
	var err error
	if r.lon, err = loadAxis(med, "lon_rho"); err != nil {
		return nil, err
	}
	if r.lat, err = loadAxis(med, "lat_rho"); err != nil {
		return nil, err
	}
	if r.sRho, err = loadAxis(med, "s_rho"); err != nil {
		return nil, err
	}
	if r.sW, err = loadAxis(med, "s_w"); err != nil {
		return nil, err
	}
	r.nx, r.ny = len(r.lon), len(r.lat)
	r.lonU = midpoints(r.lon)
	r.latV = midpoints(r.lat)
	if r.h, err = med.GridVariable("h"); err != nil {
		return nil, err
	}
	mask, err := med.GridIntVariable("mask_rho")
	if err != nil {
		return nil, err
	}
	r.land = make([]bool, len(mask))
	for i, m := range mask {
		r.land[i] = m != 0
	}
	return r, nil
}

func midpoints(a rectAxis) rectAxis {
	m := make(rectAxis, len(a)-1)
	for i := range m {
		m[i] = 0.5 * (a[i] + a[i+1])
	}
	return m
}

// FindHost implements DataReader.
func (r *ROMSReader) FindHost(x, y float64, guess int) int {
	return r.findCell(x, y)
}

// UpdateTimeVars implements DataReader.
func (r *ROMSReader) UpdateTimeVars(t float64) error {
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

func (r *ROMSReader) snapshot(idx int) (*romsSnap, error) {
	for _, s := range []*romsSnap{r.s0, r.s1} {
		if s != nil && s.idx == idx {
			return s, nil
		}
	}
	s := &romsSnap{idx: idx}
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
func (r *ROMSReader) Bathymetry(x, y float64, elem int) float64 {
	checkElem(elem, r.NElems())
	return r.nodal(func(j, i int) float64 { return r.h.Get(j, i) }, x, y, elem)
}

// SurfaceElevation implements DataReader.
func (r *ROMSReader) SurfaceElevation(t, x, y float64, elem int) float64 {
	checkElem(elem, r.NElems())
	f := r.tc.frac(t)
	z0 := r.nodal(func(j, i int) float64 { return r.s0.zeta.Get(j, i) }, x, y, elem)
	z1 := r.nodal(func(j, i int) float64 { return r.s1.zeta.Get(j, i) }, x, y, elem)
	return (1-f)*z0 + f*z1
}

// stagger2 interpolates a horizontal plane sampled on the axes (ax, ay).
func stagger2(ax, ay rectAxis, get func(j, i int) float64, x, y float64) float64 {
	i, fx := ax.clampCell(x)
	j, fy := ay.clampCell(y)
	return (1-fy)*((1-fx)*get(j, i)+fx*get(j, i+1)) +
		fy*((1-fx)*get(j+1, i)+fx*get(j+1, i+1))
}

// Velocity implements DataReader. z is an s-coordinate in [-1, 0]. Each
// component is interpolated on its native staggered plane before the
// vertical and temporal interpolation.
func (r *ROMSReader) Velocity(t, x, y, z float64, elem int) (u, v, w float64) {
	checkElem(elem, r.NElems())
	f := r.tc.frac(t)

	horiz := func(arr *sparse.DenseArray, ax, ay rectAxis, k int) float64 {
		return stagger2(ax, ay, func(j, i int) float64 { return arr.Get(k, j, i) }, x, y)
	}
	vert := func(arr *sparse.DenseArray, ax, ay, levels rectAxis) float64 {
		k, fz := levels.clampCell(z)
		return (1-fz)*horiz(arr, ax, ay, k) + fz*horiz(arr, ax, ay, k+1)
	}
	comp := func(a0, a1 *sparse.DenseArray, ax, ay, levels rectAxis) float64 {
		return (1-f)*vert(a0, ax, ay, levels) + f*vert(a1, ax, ay, levels)
	}
	u = comp(r.s0.u, r.s1.u, r.lonU, r.lat, r.sRho)
	v = comp(r.s0.v, r.s1.v, r.lon, r.latV, r.sRho)
	w = comp(r.s0.w, r.s1.w, r.lon, r.lat, r.sW)
	return u, v, w
}

// BoundaryIntersection implements DataReader.
func (r *ROMSReader) BoundaryIntersection(xOld, yOld, xNew, yNew float64, elem int) (BoundaryCrossing, bool) {
	return r.boundaryWalk(xOld, yOld, xNew, yNew, elem)
}
