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

// gotmSnap is one cached snapshot of the column variables.
type gotmSnap struct {
	idx     int
	u, v, w *sparse.DenseArray // (z), per layer midpoint
	zeta    *sparse.DenseArray // scalar
}

// GOTMReader serves a single water column. There is no horizontal mesh: the
// host element is always 0 and horizontal boundary crossings cannot occur.
// The vertical coordinate is sigma in [-1, 0], matching the layer midpoints
// stored in the grid file.
type GOTMReader struct {
	med Mediator

	sigma rectAxis // layer midpoints, increasing toward the surface
	h     float64  // column depth

	tc     timeCache
	s0, s1 *gotmSnap
}

// NewGOTMReader creates a reader for the column described by med. The grid
// file supplies the sigma layer midpoints and the scalar bathymetry h.
func NewGOTMReader(med Mediator) (*GOTMReader, error) {
	r := &GOTMReader{med: med}
	var err error
	if r.sigma, err = loadAxis(med, "sigma"); err != nil {
		return nil, err
	}
	hv, err := med.GridVariable("h")
	if err != nil {
		return nil, err
	}
	r.h = hv.Elements[0]
	return r, nil
}

// FindHost implements DataReader. Every position maps to the single column.
func (r *GOTMReader) FindHost(x, y float64, guess int) int { return 0 }

// UpdateTimeVars implements DataReader.
func (r *GOTMReader) UpdateTimeVars(t float64) error {
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

func (r *GOTMReader) snapshot(idx int) (*gotmSnap, error) {
	for _, s := range []*gotmSnap{r.s0, r.s1} {
		if s != nil && s.idx == idx {
			return s, nil
		}
	}
	s := &gotmSnap{idx: idx}
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
func (r *GOTMReader) Bathymetry(x, y float64, elem int) float64 {
	checkElem(elem, 1)
	return r.h
}

// SurfaceElevation implements DataReader.
func (r *GOTMReader) SurfaceElevation(t, x, y float64, elem int) float64 {
	checkElem(elem, 1)
	f := r.tc.frac(t)
	return (1-f)*r.s0.zeta.Elements[0] + f*r.s1.zeta.Elements[0]
}

// Velocity implements DataReader. z is a sigma coordinate in [-1, 0].
func (r *GOTMReader) Velocity(t, x, y, z float64, elem int) (u, v, w float64) {
	checkElem(elem, 1)
	f := r.tc.frac(t)
	k, fz := r.sigma.clampCell(z)
	profile := func(a0, a1 *sparse.DenseArray) float64 {
		v0 := (1-fz)*a0.Elements[k] + fz*a0.Elements[k+1]
		v1 := (1-fz)*a1.Elements[k] + fz*a1.Elements[k+1]
		return (1-f)*v0 + f*v1
	}
	return profile(r.s0.u, r.s1.u), profile(r.s0.v, r.s1.v), profile(r.s0.w, r.s1.w)
}

// BoundaryIntersection implements DataReader. A column has no horizontal
// boundaries.
func (r *GOTMReader) BoundaryIntersection(xOld, yOld, xNew, yNew float64, elem int) (BoundaryCrossing, bool) {
	return BoundaryCrossing{}, false
}
