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

import "fmt"

// A DataReader interpolates time- and space-varying field data for one mesh
// family. One concrete implementation exists per supported circulation
// model; callers depend only on this interface.
//
// The get-style methods interpolate within element elem at an arbitrary
// position and time. They require that elem is a valid element index for the
// mesh and that the time lies within the currently cached snapshot bracket;
// violating either is a programming error and panics. Callers establish the
// preconditions with FindHost and UpdateTimeVars.
type DataReader interface {
	// FindHost returns the index of the mesh element containing (x, y), or
	// HostNotFound if the position lies outside the domain. If guess is a
	// valid element index the search walks the adjacency graph from there;
	// pass HostNotFound to force a global search.
	FindHost(x, y float64, guess int) int

	// UpdateTimeVars refreshes the two-snapshot cache so that t lies within
	// the cached bracket. On failure the previous cache contents are
	// retained unchanged.
	UpdateTimeVars(t float64) error

	// Bathymetry returns the bathymetric depth [m] at (x, y).
	Bathymetry(x, y float64, elem int) float64

	// SurfaceElevation returns the sea surface elevation [m] at (x, y) and
	// time t.
	SurfaceElevation(t, x, y float64, elem int) float64

	// Velocity returns the three velocity components [m/s] at the given
	// position and time. The interpretation of z follows the mesh family's
	// vertical coordinate (see Particle).
	Velocity(t, x, y, z float64, elem int) (u, v, w float64)

	// BoundaryIntersection locates the point where the segment from
	// (xOld, yOld), known to lie in element elem, to (xNew, yNew) crosses an
	// open-boundary edge reachable from elem. It reports ok=false if no
	// boundary edge is crossed.
	BoundaryIntersection(xOld, yOld, xNew, yNew float64, elem int) (BoundaryCrossing, bool)
}

// BoundaryCrossing describes the intersection of a particle displacement
// with an open-boundary edge: the edge end points and the intersection
// point itself.
type BoundaryCrossing struct {
	X1, Y1 float64 // first edge end point
	X2, Y2 float64 // second edge end point
	Xi, Yi float64 // intersection point
	Elem   int     // element on the water side of the crossed edge
}

// TimeBracket identifies the two field snapshots bracketing a simulation
// time: their time values and their indices in the source time series.
type TimeBracket struct {
	T0, T1 float64
	I0, I1 int
}

// timeEps absorbs rounding when comparing simulation times against snapshot
// times.
const timeEps = 1e-6

// timeCache is the time portion of a reader's two-snapshot cache.
type timeCache struct {
	TimeBracket
	valid bool
}

// frac returns the linear interpolation weight of t within the bracket,
// 0 at T0 and 1 at T1. It panics if the cache does not bracket t.
func (c *timeCache) frac(t float64) float64 {
	if !c.valid || t < c.T0-timeEps || t > c.T1+timeEps {
		panic(fmt.Sprintf("pylag: time %g outside cached bracket [%g, %g]", t, c.T0, c.T1))
	}
	if c.T1 == c.T0 {
		return 0
	}
	return (t - c.T0) / (c.T1 - c.T0)
}

// checkElem panics if e is not a valid element index.
func checkElem(e, nElems int) {
	if e < 0 || e >= nElems {
		panic(fmt.Sprintf("pylag: element index %d out of range [0, %d)", e, nElems))
	}
}

// NewDataReader returns the DataReader for the named mesh family, one of
// "FVCOM", "ArakawaA", "ROMS" or "GOTM".
func NewDataReader(family string, med Mediator) (DataReader, error) {
	switch family {
	case "FVCOM":
		return NewFVCOMReader(med)
	case "ArakawaA":
		return NewArakawaAReader(med)
	case "ROMS":
		return NewROMSReader(med)
	case "GOTM":
		return NewGOTMReader(med)
	}
	return nil, fmt.Errorf("pylag: unsupported circulation model %q", family)
}

// segmentIntersection returns the intersection of segments p and q, if any.
func segmentIntersection(px1, py1, px2, py2, qx1, qy1, qx2, qy2 float64) (xi, yi float64, ok bool) {
	rx, ry := px2-px1, py2-py1
	sx, sy := qx2-qx1, qy2-qy1
	den := rx*sy - ry*sx
	if den == 0 {
		return 0, 0, false
	}
	t := ((qx1-px1)*sy - (qy1-py1)*sx) / den
	u := ((qx1-px1)*ry - (qy1-py1)*rx) / den
	const eps = 1e-12
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return 0, 0, false
	}
	return px1 + t*rx, py1 + t*ry, true
}
