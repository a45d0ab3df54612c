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

func TestCheckTimeAlignment(t *testing.T) {
	times := []float64{0, 100, 200}
	if err := checkTimeAlignment(times, 0, 0.5); err != nil {
		t.Errorf("aligned step rejected: %v", err)
	}
	if err := checkTimeAlignment(times, 0, 50); err != nil {
		t.Errorf("aligned step rejected: %v", err)
	}
	if err := checkTimeAlignment(times, 0, 60); err == nil {
		t.Error("snapshot at t=100 falls inside a 60 s step; should be rejected")
	}
	if err := checkTimeAlignment(times, 0, 0.3); err == nil {
		t.Error("misaligned step should be rejected")
	}
}

// TestRunSerial drives the complete serial pipeline: raw mesh output to grid
// metrics, field and seed files to a trajectory file, which is then read
// back. The flow is constant (u, v) = (0.01, 0.02) on the unit square, so the
// single particle drifts from (0.6, 0.2) to (0.61, 0.22) over one second.
func TestRunSerial(t *testing.T) {
	cfg := testRunConfig(t, t.TempDir())
	if err := cfg.Check(); err != nil {
		t.Fatal(err)
	}
	if err := Run(cfg); err != nil {
		t.Fatal(err)
	}

	f, err := OpenFieldFile(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	times := f.Times()
	wantTimes := []float64{0, 0.5, 1}
	if len(times) != len(wantTimes) {
		t.Fatalf("record times = %v, want %v", times, wantTimes)
	}
	for i := range wantTimes {
		if !approx(times[i], wantTimes[i], 1e-9) {
			t.Fatalf("record times = %v, want %v", times, wantTimes)
		}
	}

	read := func(name string, rec int) float64 {
		t.Helper()
		slab, err := f.Slab(name, rec)
		if err != nil {
			t.Fatal(err)
		}
		return slab.Get(0)
	}
	if got := read("xpos", 0); !approx(got, 0.6, 1e-5) {
		t.Errorf("initial xpos = %g, want 0.6", got)
	}
	if got := read("xpos", 2); !approx(got, 0.61, 1e-5) {
		t.Errorf("final xpos = %g, want 0.61", got)
	}
	if got := read("ypos", 2); !approx(got, 0.22, 1e-5) {
		t.Errorf("final ypos = %g, want 0.22", got)
	}
	if got := read("zpos", 2); !approx(got, -0.25, 1e-5) {
		t.Errorf("final zpos = %g, want -0.25", got)
	}
	if got := read("zeta", 2); !approx(got, 0.1, 1e-5) {
		t.Errorf("final zeta = %g, want 0.1", got)
	}
	// Bathymetry at (0.61, 0.22), interpolated over the first element's
	// nodes with depths 10, 12 and 14.
	if got := read("h", 2); !approx(got, 11.66, 1e-4) {
		t.Errorf("final h = %g, want 11.66", got)
	}
}
