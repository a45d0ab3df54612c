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
	"math"
	"sort"
	"testing"

	"github.com/ctessum/sparse"
)

// fakeMediator serves grid and field data from memory.
type fakeMediator struct {
	dims   map[string]int
	grid   map[string]*sparse.DenseArray
	igrid  map[string][]int32
	fields map[string][]*sparse.DenseArray // indexed by snapshot
	times  []float64
}

func (m *fakeMediator) Dim(name string) (int, error) {
	n, ok := m.dims[name]
	if !ok {
		return 0, dataUnavailable(name, fmt.Errorf("no such dimension"))
	}
	return n, nil
}

func (m *fakeMediator) GridVariable(name string) (*sparse.DenseArray, error) {
	a, ok := m.grid[name]
	if !ok {
		return nil, dataUnavailable(name, fmt.Errorf("no such variable"))
	}
	return a, nil
}

func (m *fakeMediator) GridIntVariable(name string) ([]int32, error) {
	v, ok := m.igrid[name]
	if !ok {
		return nil, dataUnavailable(name, fmt.Errorf("no such variable"))
	}
	return v, nil
}

func (m *fakeMediator) FieldAt(name string, tidx int) (*sparse.DenseArray, error) {
	snaps, ok := m.fields[name]
	if !ok {
		return nil, dataUnavailable(name, fmt.Errorf("no such variable"))
	}
	if tidx < 0 || tidx >= len(snaps) {
		return nil, dataUnavailable(name, fmt.Errorf("time index %d out of range", tidx))
	}
	return snaps[tidx], nil
}

func (m *fakeMediator) UpdateTimeVars(t float64) (TimeBracket, error) {
	n := len(m.times)
	if t < m.times[0]-timeEps || t > m.times[n-1]+timeEps {
		return TimeBracket{}, dataUnavailable("time", fmt.Errorf("t=%g out of span", t))
	}
	i1 := sort.SearchFloat64s(m.times, t)
	if i1 == n {
		i1 = n - 1
	}
	i0 := i1
	if m.times[i1] > t && i1 > 0 {
		i0 = i1 - 1
	}
	return TimeBracket{T0: m.times[i0], T1: m.times[i1], I0: i0, I1: i1}, nil
}

func dense(shape []int, vals []float64) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	copy(a.Elements, vals)
	return a
}

// squareMesh is a unit square split along its main diagonal: element 0
// covers the lower-right triangle (nodes 0,1,2), element 1 the upper-left
// (nodes 0,2,3). Both off-diagonal edges of each element are open
// boundaries.
func squareMesh() *fakeMediator {
	m := &fakeMediator{
		dims: map[string]int{"node": 4, "nele": 2},
		grid: map[string]*sparse.DenseArray{
			"x":      dense([]int{4}, []float64{0, 1, 1, 0}),
			"y":      dense([]int{4}, []float64{0, 0, 1, 1}),
			"xc":     dense([]int{2}, []float64{2.0 / 3, 1.0 / 3}),
			"yc":     dense([]int{2}, []float64{1.0 / 3, 2.0 / 3}),
			"h":      dense([]int{4}, []float64{10, 12, 14, 16}),
			"siglay": dense([]int{2}, []float64{-0.25, -0.75}),
			"siglev": dense([]int{3}, []float64{0, -0.5, -1}),
			"a1u":    dense([]int{4, 2}, make([]float64, 8)),
			"a2u":    dense([]int{4, 2}, make([]float64, 8)),
		},
		igrid: map[string][]int32{
			// Stored (three, nele) row-major: slot i of element e is at
			// i*nele+e.
			"nv":  {0, 0, 1, 2, 2, 3},
			"nbe": {1, -1, -1, 0, -1, -1},
		},
		times: []float64{0, 100, 200},
	}
	m.fields = map[string][]*sparse.DenseArray{}
	// Element-centered velocities, constant per element and layer.
	for name, base := range map[string]float64{"u": 1, "v": 2, "ww": 0} {
		var snaps []*sparse.DenseArray
		for ti := range m.times {
			// Layer 0 and 1 values for elements 0 and 1.
			s := float64(ti + 1)
			snaps = append(snaps, dense([]int{2, 2}, []float64{
				base * s, base * s * 10,
				base * s * 2, base * s * 20,
			}))
		}
		m.fields[name] = snaps
	}
	var zetas []*sparse.DenseArray
	for ti := range m.times {
		s := float64(ti + 1)
		zetas = append(zetas, dense([]int{4}, []float64{0.1 * s, 0.2 * s, 0.3 * s, 0.4 * s}))
	}
	m.fields["zeta"] = zetas
	return m
}

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestFakeMediatorBracket(t *testing.T) {
	m := squareMesh()
	br, err := m.UpdateTimeVars(150)
	if err != nil {
		t.Fatal(err)
	}
	if br.I0 != 1 || br.I1 != 2 || br.T0 != 100 || br.T1 != 200 {
		t.Fatalf("got bracket %+v", br)
	}
	// Final time yields a degenerate bracket.
	br, err = m.UpdateTimeVars(200)
	if err != nil {
		t.Fatal(err)
	}
	if br.I0 != 2 || br.I1 != 2 {
		t.Fatalf("got bracket %+v at final time", br)
	}
	if _, err := m.UpdateTimeVars(300); err == nil {
		t.Fatal("expected an error beyond the field data span")
	}
}
