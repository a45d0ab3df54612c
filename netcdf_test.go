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
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
)

// writeRawFVCOMFile writes the unit-square mesh the way a circulation model
// would: 1-based node indices and an adjacency table in the model's own
// slot order. a1u supplies the (four, nele) gradient coefficients; nil means
// all zero.
func writeRawFVCOMFile(t *testing.T, path string, a1u []float32) {
	t.Helper()
	if a1u == nil {
		a1u = make([]float32, 8)
	}
	h := cdf.NewHeader(
		[]string{"node", "nele", "three", "four", "siglay", "siglev"},
		[]int{4, 2, 3, 4, 2, 3})
	for _, name := range []string{"x", "y", "h"} {
		h.AddVariable(name, []string{"node"}, []float32{0})
	}
	for _, name := range []string{"xc", "yc"} {
		h.AddVariable(name, []string{"nele"}, []float32{0})
	}
	h.AddVariable("nv", []string{"three", "nele"}, []int32{0})
	h.AddVariable("nbe", []string{"three", "nele"}, []int32{0})
	h.AddVariable("a1u", []string{"four", "nele"}, []float32{0})
	h.AddVariable("a2u", []string{"four", "nele"}, []float32{0})
	h.AddVariable("siglay", []string{"siglay"}, []float32{0})
	h.AddVariable("siglev", []string{"siglev"}, []float32{0})
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	write := func(name string, data interface{}) {
		t.Helper()
		end := f.Header.Lengths(name)
		if _, err := f.Writer(name, make([]int, len(end)), end).Write(data); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	write("x", []float32{0, 1, 1, 0})
	write("y", []float32{0, 0, 1, 1})
	write("xc", []float32{2.0 / 3, 1.0 / 3})
	write("yc", []float32{1.0 / 3, 2.0 / 3})
	write("h", []float32{10, 12, 14, 16})
	write("nv", []int32{1, 1, 2, 3, 3, 4})
	// Raw adjacency: each element's single neighbor in the first raw
	// slot, 1-based, 0 meaning none.
	write("nbe", []int32{2, 1, 0, 0, 0, 0})
	write("a1u", a1u)
	write("a2u", make([]float32, 8))
	write("siglay", []float32{-0.25, -0.75})
	write("siglev", []float32{0, -0.5, -1})
	if err := ff.Close(); err != nil {
		t.Fatal(err)
	}
}

// writeFVCOMFieldFile writes constant fields (u, v) = (0.01, 0.02), w = 0
// and zeta = 0.1 for the unit-square mesh at the given snapshot times.
func writeFVCOMFieldFile(t *testing.T, path string, times []float64) {
	t.Helper()
	nt := len(times)
	h := cdf.NewHeader(
		[]string{"time", "siglay", "node", "nele"},
		[]int{nt, 2, 4, 2})
	h.AddVariable("time", []string{"time"}, []float64{0})
	for _, name := range []string{"u", "v", "ww"} {
		h.AddVariable(name, []string{"time", "siglay", "nele"}, []float32{0})
	}
	h.AddVariable("zeta", []string{"time", "node"}, []float32{0})
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Writer("time", []int{0}, []int{nt}).Write(times); err != nil {
		t.Fatal(err)
	}
	fill := func(name string, val float32, n int) {
		t.Helper()
		data := make([]float32, n)
		for i := range data {
			data[i] = val
		}
		end := f.Header.Lengths(name)
		if _, err := f.Writer(name, make([]int, len(end)), end).Write(data); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	fill("u", 0.01, nt*2*2)
	fill("v", 0.02, nt*2*2)
	fill("ww", 0, nt*2*2)
	fill("zeta", 0.1, nt*4)
	if err := ff.Close(); err != nil {
		t.Fatal(err)
	}
}

// writeSeedFile writes a one-particle seed file.
func writeSeedFile(t *testing.T, path string) {
	t.Helper()
	data := "# group x y z\n1 0.6 0.2 -0.25\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}

// testRunConfig assembles the input files for a serial unit-square run in
// dir and returns the matching configuration.
func testRunConfig(t *testing.T, dir string) *RunConfig {
	t.Helper()
	raw := filepath.Join(dir, "raw.nc")
	metrics := filepath.Join(dir, "grid_metrics.nc")
	fields := filepath.Join(dir, "fields.nc")
	seedfile := filepath.Join(dir, "seeds.dat")
	writeRawFVCOMFile(t, raw, nil)
	if err := BuildGridMetrics(raw, metrics); err != nil {
		t.Fatal(err)
	}
	writeFVCOMFieldFile(t, fields, []float64{0, 100})
	writeSeedFile(t, seedfile)
	return &RunConfig{
		MeshFamily:      "FVCOM",
		GridMetricsFile: metrics,
		FieldFiles:      []string{fields},
		SeedFile:        seedfile,
		OutputFile:      filepath.Join(dir, "out.nc"),
		TimeStart:       0,
		TimeEnd:         1,
		TimeStep:        0.5,
		RecordInterval:  1,
		Integrator:      "RK4",
		MaxReflections:  4,
	}
}
