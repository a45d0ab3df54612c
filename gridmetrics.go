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

	"github.com/ctessum/geom"
)

// GridMetrics holds the static description of an unstructured triangular
// mesh, read once at startup from a grid metrics file produced by the
// offline preprocessing tool.
//
// The adjacency table NBE is canonically sorted relative to the connectivity
// table NV: the edge shared with neighbor slot i of element e is the edge
// joining nodes NV[e][(i+2)%3] and NV[e][i]. The gradient coefficient tables
// A1U and A2U use the same slot order (slot 0 is the element itself, slots
// 1..3 follow NBE). The engine assumes this correspondence; it is
// established offline and verified, never re-derived, at runtime.
type GridMetrics struct {
	NNodes int
	NElems int

	// Node and element-centroid coordinates.
	X, Y   []float64
	XC, YC []float64

	// NV lists the three nodes of each element. NBE lists the three
	// neighboring elements, with HostNotFound marking an open-boundary edge.
	NV  [][3]int
	NBE [][3]int

	// Gradient coefficients for element-centered velocity reconstruction.
	A1U, A2U [][4]float64

	// Bathymetric depth at nodes [m].
	H []float64

	// Sigma coordinates of layer mid-points and layer interfaces.
	SigLay []float64
	SigLev []float64
}

// LoadGridMetrics assembles grid metrics from the variables exposed by med.
func LoadGridMetrics(med Mediator) (*GridMetrics, error) {
	gm := new(GridMetrics)
	var err error
	if gm.NNodes, err = med.Dim("node"); err != nil {
		return nil, err
	}
	if gm.NElems, err = med.Dim("nele"); err != nil {
		return nil, err
	}

	for _, v := range []struct {
		name string
		dst  *[]float64
		n    int
	}{
		{"x", &gm.X, gm.NNodes},
		{"y", &gm.Y, gm.NNodes},
		{"xc", &gm.XC, gm.NElems},
		{"yc", &gm.YC, gm.NElems},
		{"h", &gm.H, gm.NNodes},
	} {
		arr, err := med.GridVariable(v.name)
		if err != nil {
			return nil, err
		}
		if len(arr.Elements) != v.n {
			return nil, fmt.Errorf("pylag: grid variable %q has %d values; want %d",
				v.name, len(arr.Elements), v.n)
		}
		*v.dst = arr.Elements
	}

	if arr, err := med.GridVariable("siglay"); err == nil {
		gm.SigLay = arr.Elements
	} else {
		return nil, err
	}
	if arr, err := med.GridVariable("siglev"); err == nil {
		gm.SigLev = arr.Elements
	} else {
		return nil, err
	}

	nv, err := med.GridIntVariable("nv")
	if err != nil {
		return nil, err
	}
	nbe, err := med.GridIntVariable("nbe")
	if err != nil {
		return nil, err
	}
	if len(nv) != 3*gm.NElems || len(nbe) != 3*gm.NElems {
		return nil, fmt.Errorf("pylag: connectivity tables have %d and %d entries; want %d",
			len(nv), len(nbe), 3*gm.NElems)
	}
	gm.NV = make([][3]int, gm.NElems)
	gm.NBE = make([][3]int, gm.NElems)
	for i := 0; i < 3; i++ {
		for j := 0; j < gm.NElems; j++ {
			gm.NV[j][i] = int(nv[i*gm.NElems+j])
			gm.NBE[j][i] = int(nbe[i*gm.NElems+j])
		}
	}

	a1u, err := med.GridVariable("a1u")
	if err != nil {
		return nil, err
	}
	a2u, err := med.GridVariable("a2u")
	if err != nil {
		return nil, err
	}
	if len(a1u.Elements) != 4*gm.NElems || len(a2u.Elements) != 4*gm.NElems {
		return nil, fmt.Errorf("pylag: interpolant tables have %d and %d entries; want %d",
			len(a1u.Elements), len(a2u.Elements), 4*gm.NElems)
	}
	gm.A1U = make([][4]float64, gm.NElems)
	gm.A2U = make([][4]float64, gm.NElems)
	for i := 0; i < 4; i++ {
		for j := 0; j < gm.NElems; j++ {
			gm.A1U[j][i] = a1u.Elements[i*gm.NElems+j]
			gm.A2U[j][i] = a2u.Elements[i*gm.NElems+j]
		}
	}

	if err := gm.checkAdjacency(); err != nil {
		return nil, err
	}
	return gm, nil
}

// checkAdjacency verifies that the adjacency table is symmetric: every
// element referenced by a neighbor slot must itself list the referring
// element as a neighbor on the shared edge.
func (gm *GridMetrics) checkAdjacency() error {
	for e := 0; e < gm.NElems; e++ {
		for i := 0; i < 3; i++ {
			n := gm.NBE[e][i]
			if n == HostNotFound {
				continue
			}
			if n < 0 || n >= gm.NElems {
				return fmt.Errorf("pylag: element %d neighbor slot %d references invalid element %d", e, i, n)
			}
			found := false
			for j := 0; j < 3; j++ {
				if gm.NBE[n][j] == e {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("pylag: adjacency table is not symmetric: element %d lists %d as a neighbor but not vice versa", e, n)
			}
		}
	}
	return nil
}

// Barycentric returns the barycentric coordinates of (x, y) with respect to
// element e. All three coordinates are non-negative if and only if the point
// lies within the element.
func (gm *GridMetrics) Barycentric(x, y float64, e int) [3]float64 {
	n := gm.NV[e]
	x1, y1 := gm.X[n[0]], gm.Y[n[0]]
	x2, y2 := gm.X[n[1]], gm.Y[n[1]]
	x3, y3 := gm.X[n[2]], gm.Y[n[2]]

	det := (y2-y3)*(x1-x3) + (x3-x2)*(y1-y3)
	phi1 := ((y2-y3)*(x-x3) + (x3-x2)*(y-y3)) / det
	phi2 := ((y3-y1)*(x-x3) + (x1-x3)*(y-y3)) / det
	return [3]float64{phi1, phi2, 1 - phi1 - phi2}
}

// Edge returns the node coordinates of the edge shared with neighbor slot i
// of element e, following the canonical slot ordering.
func (gm *GridMetrics) Edge(e, i int) (x1, y1, x2, y2 float64) {
	n := gm.NV[e]
	a := n[(i+2)%3]
	b := n[i]
	return gm.X[a], gm.Y[a], gm.X[b], gm.Y[b]
}

// slotOppositeNode maps the index of the node with the most negative
// barycentric coordinate to the neighbor slot covering the opposite edge.
func slotOppositeNode(j int) int { return (j + 2) % 3 }

// ElemPolygon returns the geometry of element e.
func (gm *GridMetrics) ElemPolygon(e int) geom.Polygon {
	n := gm.NV[e]
	return geom.Polygon{{
		{X: gm.X[n[0]], Y: gm.Y[n[0]]},
		{X: gm.X[n[1]], Y: gm.Y[n[1]]},
		{X: gm.X[n[2]], Y: gm.Y[n[2]]},
	}}
}
