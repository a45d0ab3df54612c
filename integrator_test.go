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
	"testing"

	"gonum.org/v1/gonum/stat"
)

// rotationReader serves the steady solid-body rotation u = -omega*y, v = omega*x,
// whose trajectories are exact circles.
type rotationReader struct {
	omega float64
}

func (r *rotationReader) FindHost(x, y float64, guess int) int { return 0 }
func (r *rotationReader) UpdateTimeVars(t float64) error       { return nil }
func (r *rotationReader) Bathymetry(x, y float64, elem int) float64 {
	return 0
}
func (r *rotationReader) SurfaceElevation(t, x, y float64, elem int) float64 {
	return 0
}
func (r *rotationReader) Velocity(t, x, y, z float64, elem int) (u, v, w float64) {
	return -r.omega * y, r.omega * x, 0
}
func (r *rotationReader) BoundaryIntersection(xOld, yOld, xNew, yNew float64, elem int) (BoundaryCrossing, bool) {
	return BoundaryCrossing{}, false
}

// integrate advances one particle through the rotation field with step dt
// and returns its final distance from the exact solution.
func integrateRotation(t *testing.T, integ Integrator, dt float64) float64 {
	t.Helper()
	const (
		omega = 1.0
		tEnd  = 3.0
	)
	dr := &rotationReader{omega: omega}
	p := &Particle{X: 0.1, Y: 0.1, InDomain: true}
	for tm := 0.0; tm < tEnd-dt/2; tm += dt {
		var d Delta
		if !integ.Advect(dr, p, tm, dt, &d) {
			t.Fatal("advection unexpectedly left the domain")
		}
		p.X += d.X
		p.Y += d.Y
	}
	sin, cos := math.Sincos(omega * tEnd)
	xe := 0.1*cos - 0.1*sin
	ye := 0.1*sin + 0.1*cos
	return math.Hypot(p.X-xe, p.Y-ye)
}

func TestRK4Accuracy(t *testing.T) {
	rk4Err := integrateRotation(t, RK4Integrator{}, 0.01)
	if rk4Err > 1e-8 {
		t.Fatalf("RK4 error %g; want < 1e-8", rk4Err)
	}
	eulerErr := integrateRotation(t, EulerIntegrator{}, 0.01)
	if eulerErr < 100*rk4Err {
		t.Fatalf("Euler error %g should far exceed RK4 error %g", eulerErr, rk4Err)
	}
}

func TestIntegratorConvergence(t *testing.T) {
	// Halving the step must shrink the error: by about 2 for the
	// first-order scheme and about 16 for the fourth-order one. The
	// thresholds leave room for the non-asymptotic terms.
	eu1 := integrateRotation(t, EulerIntegrator{}, 0.01)
	eu2 := integrateRotation(t, EulerIntegrator{}, 0.005)
	if eu2 >= eu1/1.5 {
		t.Errorf("Euler error %g at half step; want well below %g", eu2, eu1)
	}
	rk1 := integrateRotation(t, RK4Integrator{}, 0.2)
	rk2 := integrateRotation(t, RK4Integrator{}, 0.1)
	if rk2 >= rk1/8 {
		t.Errorf("RK4 error %g at half step; want below %g", rk2, rk1/8)
	}
}

func TestNewIntegrator(t *testing.T) {
	for _, name := range []string{"Euler", "RK4"} {
		if _, err := NewIntegrator(name); err != nil {
			t.Errorf("NewIntegrator(%q): %v", name, err)
		}
	}
	if _, err := NewIntegrator("AB3"); err == nil {
		t.Error("expected an error for an unknown scheme")
	}
}

func TestRandomWalkStatistics(t *testing.T) {
	const (
		kh = 1e-3
		dt = 10.0
		n  = 20000
	)
	rw := NewRandomWalk(kh, 0, 42, 0)
	xs := make([]float64, n)
	for i := range xs {
		var d Delta
		rw.Displace(dt, &d)
		xs[i] = d.X
		if d.Z != 0 {
			t.Fatal("vertical displacement with zero vertical diffusivity")
		}
	}
	mean, variance := stat.MeanVariance(xs, nil)
	wantVar := 2 * kh * dt
	if math.Abs(mean) > 3*math.Sqrt(wantVar/n) {
		t.Errorf("sample mean %g is inconsistent with zero", mean)
	}
	if math.Abs(variance-wantVar)/wantVar > 0.1 {
		t.Errorf("sample variance %g; want about %g", variance, wantVar)
	}
}

func TestRandomWalkReproducibility(t *testing.T) {
	draw := func(rank int) Delta {
		rw := NewRandomWalk(1e-3, 1e-4, 7, rank)
		var d Delta
		rw.Displace(1, &d)
		return d
	}
	if draw(0) != draw(0) {
		t.Error("same seed and rank should reproduce the same sequence")
	}
	if draw(0) == draw(1) {
		t.Error("different ranks should draw decorrelated sequences")
	}
}
