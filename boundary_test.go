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
	"testing"
)

// scriptedReader triggers boundary handling with a fixed crossing. FindHost
// succeeds only inside the unit circle around the origin.
type scriptedReader struct {
	crossing BoundaryCrossing
	hasCross bool
	inside   func(x, y float64) bool
}

func (r *scriptedReader) FindHost(x, y float64, guess int) int {
	if r.inside(x, y) {
		return 3
	}
	return HostNotFound
}
func (r *scriptedReader) UpdateTimeVars(t float64) error { return nil }
func (r *scriptedReader) Bathymetry(x, y float64, elem int) float64 {
	return 0
}
func (r *scriptedReader) SurfaceElevation(t, x, y float64, elem int) float64 {
	return 0
}
func (r *scriptedReader) Velocity(t, x, y, z float64, elem int) (u, v, w float64) {
	return 0, 0, 0
}
func (r *scriptedReader) BoundaryIntersection(xOld, yOld, xNew, yNew float64, elem int) (BoundaryCrossing, bool) {
	return r.crossing, r.hasCross
}

func TestResolveReflection(t *testing.T) {
	// A move from (0, -1) to (0, 1) across the boundary segment
	// (-1, -1)-(1, 1) must fold back to (1, 0).
	dr := &scriptedReader{
		crossing: BoundaryCrossing{X1: -1, Y1: -1, X2: 1, Y2: 1, Xi: 0, Yi: 0},
		hasCross: true,
		inside:   func(x, y float64) bool { return y <= x },
	}
	br := &BoundaryResolver{MaxReflections: 4}
	p := &Particle{X: 0, Y: -1, HostElem: 0, InDomain: true}
	x, y, host, state := br.Resolve(dr, p, 0, 1)
	if state != MoveReflected {
		t.Fatalf("got state %v; want MoveReflected", state)
	}
	if !approx(x, 1, 1e-12) || !approx(y, 0, 1e-12) {
		t.Fatalf("got reflected position (%g, %g); want (1, 0)", x, y)
	}
	if host != 3 {
		t.Fatalf("got host %d; want 3", host)
	}
}

func TestResolveOK(t *testing.T) {
	dr := &scriptedReader{inside: func(x, y float64) bool { return true }}
	br := &BoundaryResolver{MaxReflections: 4}
	p := &Particle{X: 0, Y: 0, HostElem: 1, InDomain: true}
	x, y, host, state := br.Resolve(dr, p, 0.5, 0.5)
	if state != MoveOK || x != 0.5 || y != 0.5 || host != 3 {
		t.Fatalf("got (%g, %g, %d, %v); want the proposed move committed", x, y, host, state)
	}
}

func TestResolveStranded(t *testing.T) {
	// No reflected candidate ever lands inside.
	dr := &scriptedReader{
		crossing: BoundaryCrossing{X1: -1, Y1: -1, X2: 1, Y2: 1, Xi: 0, Yi: 0},
		hasCross: true,
		inside:   func(x, y float64) bool { return false },
	}
	br := &BoundaryResolver{MaxReflections: 3}
	p := &Particle{X: 0.25, Y: -0.5, HostElem: 2, InDomain: true}
	x, y, host, state := br.Resolve(dr, p, 0, 1)
	if state != MoveStranded {
		t.Fatalf("got state %v; want MoveStranded", state)
	}
	// The particle freezes at its last valid position.
	if x != p.X || y != p.Y || host != p.HostElem {
		t.Fatalf("got (%g, %g, %d); want the old position preserved", x, y, host)
	}
}

func TestResolveStrandedWhenNoCrossingFound(t *testing.T) {
	dr := &scriptedReader{
		hasCross: false,
		inside:   func(x, y float64) bool { return false },
	}
	br := &BoundaryResolver{MaxReflections: 3}
	p := &Particle{X: 0.25, Y: -0.5, HostElem: 2, InDomain: true}
	if _, _, _, state := br.Resolve(dr, p, 5, 5); state != MoveStranded {
		t.Fatalf("got state %v; want MoveStranded", state)
	}
}

// walkReader pops one scripted crossing per call and records the element
// each boundary walk and host search was seeded with.
type walkReader struct {
	scriptedReader
	crossings []BoundaryCrossing
	seeds     []int
	guesses   []int
}

func (r *walkReader) FindHost(x, y float64, guess int) int {
	r.guesses = append(r.guesses, guess)
	return r.scriptedReader.FindHost(x, y, guess)
}

func (r *walkReader) BoundaryIntersection(xOld, yOld, xNew, yNew float64, elem int) (BoundaryCrossing, bool) {
	r.seeds = append(r.seeds, elem)
	if len(r.crossings) == 0 {
		return BoundaryCrossing{}, false
	}
	c := r.crossings[0]
	r.crossings = r.crossings[1:]
	return c, true
}

func TestResolveRetrySeedsFromWalkElement(t *testing.T) {
	// The first reflection of (0, 3) about y=0 lands at (0, -3), outside
	// the water band -2 < y < 0 again. The retry must restart the walk
	// from the element the first crossing was found in, not from the
	// particle's original host, which may be several elements behind.
	dr := &walkReader{
		scriptedReader: scriptedReader{inside: func(x, y float64) bool { return y > -2 && y < 0 }},
		crossings: []BoundaryCrossing{
			{X1: -10, Y1: 0, X2: 10, Y2: 0, Xi: 0, Yi: 0, Elem: 7},
			{X1: -10, Y1: -2, X2: 10, Y2: -2, Xi: 0, Yi: -2, Elem: 9},
		},
	}
	br := &BoundaryResolver{MaxReflections: 4}
	p := &Particle{X: 0, Y: -1, HostElem: 2, InDomain: true}
	x, y, _, state := br.Resolve(dr, p, 0, 3)
	if state != MoveReflected {
		t.Fatalf("got state %v; want MoveReflected", state)
	}
	if !approx(x, 0, 1e-12) || !approx(y, -1, 1e-12) {
		t.Fatalf("got position (%g, %g); want (0, -1)", x, y)
	}
	if len(dr.seeds) != 2 || dr.seeds[0] != 2 || dr.seeds[1] != 7 {
		t.Fatalf("walk seeds = %v; want [2 7]", dr.seeds)
	}
	if n := len(dr.guesses); dr.guesses[n-1] != 9 {
		t.Fatalf("host guesses = %v; want the last seeded with 9", dr.guesses)
	}
}
