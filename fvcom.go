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
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/sparse"
)

const (
	// maxHostHops bounds the directed host-search walk. A walk that has not
	// terminated after this many edge crossings restarts as a global search.
	maxHostHops = 1000

	// phiTol is the tolerance applied to barycentric coordinate sign tests.
	phiTol = 1e-10
)

// fvcomSnap is one cached snapshot of the FVCOM time-dependent variables.
type fvcomSnap struct {
	idx        int
	u, v, w    *sparse.DenseArray // element-centered, (siglay, nele)
	zeta       *sparse.DenseArray // nodal, (node)
}

// FVCOMReader interpolates fields defined on an unstructured triangular
// FVCOM mesh. Velocities are element-centered and reconstructed linearly
// within each element using the canonical gradient coefficients; nodal
// variables interpolate barycentrically. The vertical coordinate is sigma.
type FVCOMReader struct {
	med Mediator
	gm  *GridMetrics

	index *rtree.Rtree // element bounding boxes, for global host search

	tc     timeCache
	s0, s1 *fvcomSnap
}

// elemBox is an rtree entry for one mesh element.
type elemBox struct {
	geom.Polygon
	e int
}

// NewFVCOMReader creates a reader for the mesh described by med.
func NewFVCOMReader(med Mediator) (*FVCOMReader, error) {
	gm, err := LoadGridMetrics(med)
	if err != nil {
		return nil, err
	}
	r := &FVCOMReader{med: med, gm: gm, index: rtree.NewTree(25, 50)}
	for e := 0; e < gm.NElems; e++ {
		r.index.Insert(&elemBox{Polygon: r.gm.ElemPolygon(e), e: e})
	}
	return r, nil
}

// Metrics returns the grid metrics the reader was built from.
func (r *FVCOMReader) Metrics() *GridMetrics { return r.gm }

// FindHost implements DataReader. With a valid guess it performs a directed
// walk: a barycentric sign test against the element's edges either confirms
// containment or names the edge to cross, and the canonical adjacency table
// gives the element on the far side. The walk is O(1) amortized when
// particles move less than one element per step.
func (r *FVCOMReader) FindHost(x, y float64, guess int) int {
	if guess == HostNotFound {
		return r.findHostGlobal(x, y)
	}
	checkElem(guess, r.gm.NElems)
	e := guess
	for hop := 0; hop < maxHostHops; hop++ {
		phi := r.gm.Barycentric(x, y, e)
		jmin := 0
		for j := 1; j < 3; j++ {
			if phi[j] < phi[jmin] {
				jmin = j
			}
		}
		if phi[jmin] >= -phiTol {
			return e
		}
		next := r.gm.NBE[e][slotOppositeNode(jmin)]
		if next == HostNotFound {
			return HostNotFound
		}
		e = next
	}
	return r.findHostGlobal(x, y)
}

// findHostGlobal locates the host element with no prior information, using
// the spatial index to restrict the exact containment tests to elements
// whose bounding boxes cover the point.
func (r *FVCOMReader) findHostGlobal(x, y float64) int {
	p := geom.Point{X: x, Y: y}
	for _, c := range r.index.SearchIntersect(&geom.Bounds{Min: p, Max: p}) {
		e := c.(*elemBox).e
		phi := r.gm.Barycentric(x, y, e)
		if phi[0] >= -phiTol && phi[1] >= -phiTol && phi[2] >= -phiTol {
			return e
		}
	}
	return HostNotFound
}

// UpdateTimeVars implements DataReader. Snapshots already cached for the new
// bracket are reused; newly required snapshots are fetched in full before
// the cache is swapped, so a failed read leaves the previous bracket intact.
func (r *FVCOMReader) UpdateTimeVars(t float64) error {
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

// snapshot returns the cached snapshot for time index idx, fetching it from
// the mediator if neither cache slot holds it.
func (r *FVCOMReader) snapshot(idx int) (*fvcomSnap, error) {
	for _, s := range []*fvcomSnap{r.s0, r.s1} {
		if s != nil && s.idx == idx {
			return s, nil
		}
	}
	s := &fvcomSnap{idx: idx}
	var err error
	if s.u, err = r.med.FieldAt("u", idx); err != nil {
		return nil, err
	}
	if s.v, err = r.med.FieldAt("v", idx); err != nil {
		return nil, err
	}
	if s.w, err = r.med.FieldAt("ww", idx); err != nil {
		return nil, err
	}
	if s.zeta, err = r.med.FieldAt("zeta", idx); err != nil {
		return nil, err
	}
	return s, nil
}

// Bathymetry implements DataReader.
func (r *FVCOMReader) Bathymetry(x, y float64, elem int) float64 {
	checkElem(elem, r.gm.NElems)
	phi := r.gm.Barycentric(x, y, elem)
	n := r.gm.NV[elem]
	return phi[0]*r.gm.H[n[0]] + phi[1]*r.gm.H[n[1]] + phi[2]*r.gm.H[n[2]]
}

// SurfaceElevation implements DataReader.
func (r *FVCOMReader) SurfaceElevation(t, x, y float64, elem int) float64 {
	checkElem(elem, r.gm.NElems)
	f := r.tc.frac(t)
	phi := r.gm.Barycentric(x, y, elem)
	n := r.gm.NV[elem]
	var z0, z1 float64
	for i := 0; i < 3; i++ {
		z0 += phi[i] * r.s0.zeta.Elements[n[i]]
		z1 += phi[i] * r.s1.zeta.Elements[n[i]]
	}
	return (1-f)*z0 + f*z1
}

// Velocity implements DataReader. z is a sigma coordinate in [-1, 0].
func (r *FVCOMReader) Velocity(t, x, y, z float64, elem int) (u, v, w float64) {
	checkElem(elem, r.gm.NElems)
	f := r.tc.frac(t)
	kLow, kUpp, omega := r.LocateLayer(z)

	interp := func(arr0, arr1 *sparse.DenseArray) float64 {
		v0 := r.reconstruct(arr0, kUpp, elem, x, y)
		v1 := r.reconstruct(arr1, kUpp, elem, x, y)
		if kLow != kUpp {
			v0 = (1-omega)*v0 + omega*r.reconstruct(arr0, kLow, elem, x, y)
			v1 = (1-omega)*v1 + omega*r.reconstruct(arr1, kLow, elem, x, y)
		}
		return (1-f)*v0 + f*v1
	}
	return interp(r.s0.u, r.s1.u), interp(r.s0.v, r.s1.v), interp(r.s0.w, r.s1.w)
}

// LocateLayer finds the sigma layers bounding z. It returns the indices of
// the layers immediately below and above the position and the interpolation
// weight toward the lower layer. Within the top and bottom boundary layers
// both indices name the nearest layer and the weight is zero.
func (r *FVCOMReader) LocateLayer(z float64) (kLow, kUpp int, omega float64) {
	lay := r.gm.SigLay
	n := len(lay)
	if z >= lay[0] {
		return 0, 0, 0
	}
	if z <= lay[n-1] {
		return n - 1, n - 1, 0
	}
	k := 0
	for k < n-1 && lay[k+1] > z {
		k++
	}
	// lay[k] >= z >= lay[k+1]
	return k + 1, k, (lay[k] - z) / (lay[k] - lay[k+1])
}

// reconstruct evaluates the element-centered variable arr at (x, y) within
// element e and layer k, applying the linear gradient reconstruction where
// all three neighbors exist and falling back to the centroid value on
// boundary elements.
func (r *FVCOMReader) reconstruct(arr *sparse.DenseArray, k, e int, x, y float64) float64 {
	vc := arr.Get(k, e)
	nbe := r.gm.NBE[e]
	if nbe[0] == HostNotFound || nbe[1] == HostNotFound || nbe[2] == HostNotFound {
		return vc
	}
	a1, a2 := r.gm.A1U[e], r.gm.A2U[e]
	n0 := arr.Get(k, nbe[0])
	n1 := arr.Get(k, nbe[1])
	n2 := arr.Get(k, nbe[2])
	dvdx := a1[0]*vc + a1[1]*n0 + a1[2]*n1 + a1[3]*n2
	dvdy := a2[0]*vc + a2[1]*n0 + a2[2]*n1 + a2[3]*n2
	return vc + dvdx*(x-r.gm.XC[e]) + dvdy*(y-r.gm.YC[e])
}

// BoundaryIntersection implements DataReader. It walks the elements
// traversed by the segment, crossing interior edges until the segment exits
// through an open-boundary edge or ends inside an element.
func (r *FVCOMReader) BoundaryIntersection(xOld, yOld, xNew, yNew float64, elem int) (BoundaryCrossing, bool) {
	checkElem(elem, r.gm.NElems)
	e := elem
	px, py := xOld, yOld
	prev := HostNotFound
	dx, dy := xNew-xOld, yNew-yOld
	len2 := dx*dx + dy*dy
	if len2 == 0 {
		return BoundaryCrossing{}, false
	}
	for hop := 0; hop < maxHostHops; hop++ {
		bestT := math.Inf(1)
		bestSlot := -1
		var bestX, bestY float64
		for i := 0; i < 3; i++ {
			if r.gm.NBE[e][i] == prev && prev != HostNotFound {
				continue
			}
			ex1, ey1, ex2, ey2 := r.gm.Edge(e, i)
			xi, yi, ok := segmentIntersection(px, py, xNew, yNew, ex1, ey1, ex2, ey2)
			if !ok {
				continue
			}
			t := ((xi-xOld)*dx + (yi-yOld)*dy) / len2
			if t < bestT {
				bestT, bestSlot = t, i
				bestX, bestY = xi, yi
			}
		}
		if bestSlot < 0 {
			return BoundaryCrossing{}, false // segment ends inside e
		}
		next := r.gm.NBE[e][bestSlot]
		if next == HostNotFound {
			x1, y1, x2, y2 := r.gm.Edge(e, bestSlot)
			return BoundaryCrossing{X1: x1, Y1: y1, X2: x2, Y2: y2, Xi: bestX, Yi: bestY, Elem: e}, true
		}
		prev, e = e, next
		px, py = bestX, bestY
	}
	return BoundaryCrossing{}, false
}
