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
	"os"

	"github.com/ctessum/cdf"
)

// trajectoryVars lists the per-particle variables written on each record
// step, with their attributes.
var trajectoryVars = []struct {
	name, longName, units string
}{
	{"xpos", "particle x position", "m"},
	{"ypos", "particle y position", "m"},
	{"zpos", "particle z position", "sigma or m"},
	{"h", "water depth at particle position", "m"},
	{"zeta", "surface elevation at particle position", "m"},
}

// TrajectoryWriter persists record frames to a NetCDF file with one record
// per record step and one column per particle.
type TrajectoryWriter struct {
	ff  *os.File
	f   *cdf.File
	n   int // particles
	rec int // records written so far
}

// NewTrajectoryWriter creates the output file for a run with n particles.
func NewTrajectoryWriter(path string, n int) (*TrajectoryWriter, error) {
	h := cdf.NewHeader([]string{"time", "particles"}, []int{0, n})
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "long_name", "seconds since the simulation start")
	h.AddAttribute("time", "units", "s")
	for _, v := range trajectoryVars {
		h.AddVariable(v.name, []string{"time", "particles"}, []float32{0})
		h.AddAttribute(v.name, "long_name", v.longName)
		h.AddAttribute(v.name, "units", v.units)
	}
	h.Define()
	ff, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("pylag: creating output file: %v", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return nil, fmt.Errorf("pylag: creating output file %s: %v", path, err)
	}
	return &TrajectoryWriter{ff: ff, f: f, n: n}, nil
}

// WriteFrame appends one record frame.
func (w *TrajectoryWriter) WriteFrame(frame RecordFrame) error {
	r := w.rec
	if _, err := w.f.Writer("time", []int{r}, []int{r + 1}).Write([]float64{frame.Time}); err != nil {
		return fmt.Errorf("pylag: writing time record %d: %v", r, err)
	}
	for _, v := range trajectoryVars {
		vals, ok := frame.Vars[v.name]
		if !ok || len(vals) != w.n {
			return fmt.Errorf("pylag: record %d is missing variable %s", r, v.name)
		}
		buf := make([]float32, w.n)
		for i, x := range vals {
			buf[i] = float32(x)
		}
		if _, err := w.f.Writer(v.name, []int{r, 0}, []int{r + 1, w.n}).Write(buf); err != nil {
			return fmt.Errorf("pylag: writing %s record %d: %v", v.name, r, err)
		}
	}
	w.rec++
	return nil
}

// Close finalizes the record count and closes the file.
func (w *TrajectoryWriter) Close() error {
	if err := cdf.UpdateNumRecs(w.ff); err != nil {
		w.ff.Close()
		return fmt.Errorf("pylag: finalizing output file: %v", err)
	}
	return w.ff.Close()
}
