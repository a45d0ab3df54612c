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
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// FieldFile provides read access to one self-describing netCDF file holding
// grid metrics or circulation-model output.
type FieldFile struct {
	path  string
	ff    *os.File
	f     *cdf.File
	times []float64
}

// OpenFieldFile opens the netCDF file at path. If the file contains a "time"
// variable its values are read eagerly; they index the record slabs returned
// by Slab.
func OpenFieldFile(path string) (*FieldFile, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, dataUnavailable(path, err)
	}
	f, err := cdf.Open(ff)
	if err != nil {
		ff.Close()
		return nil, dataUnavailable(path, err)
	}
	o := &FieldFile{path: path, ff: ff, f: f}
	for _, v := range f.Header.Variables() {
		if v == "time" {
			n := f.Header.Lengths("time")[0]
			if n == 0 && f.Header.IsRecordVariable("time") {
				// The header stores zero for the record dimension;
				// recover the record count from the file size, the
				// same quantity cdf.UpdateNumRecs persists.
				fi, err := ff.Stat()
				if err != nil {
					ff.Close()
					return nil, dataUnavailable(path+":time", err)
				}
				n = int(f.Header.NumRecs(fi.Size()))
			}
			o.times = make([]float64, n)
			r := f.Reader("time", []int{0}, []int{n})
			if _, err := r.Read(o.times); err != nil {
				ff.Close()
				return nil, dataUnavailable(path+":time", err)
			}
			break
		}
	}
	return o, nil
}

// Close closes the underlying file.
func (f *FieldFile) Close() error { return f.ff.Close() }

// Times returns the time values stored in the file, in seconds since the
// run origin.
func (f *FieldFile) Times() []float64 { return f.times }

// Dim returns the length of the named dimension.
func (f *FieldFile) Dim(name string) (int, error) {
	for _, v := range f.f.Header.Variables() {
		dims := f.f.Header.Dimensions(v)
		lens := f.f.Header.Lengths(v)
		for i, d := range dims {
			if d == name && i < len(lens) {
				return lens[i], nil
			}
		}
	}
	return 0, dataUnavailable(f.path+":"+name, fmt.Errorf("no such dimension"))
}

// Variable reads the named variable in full.
func (f *FieldFile) Variable(name string) (*sparse.DenseArray, error) {
	if !f.hasVariable(name) {
		return nil, dataUnavailable(f.path+":"+name, fmt.Errorf("no such variable"))
	}
	shape := f.f.Header.Lengths(name)
	arr := sparse.ZerosDense(shape...)
	tmp := make([]float32, len(arr.Elements))
	r := f.f.Reader(name, nil, nil)
	if _, err := r.Read(tmp); err != nil {
		return nil, dataUnavailable(f.path+":"+name, err)
	}
	for i, v := range tmp {
		arr.Elements[i] = float64(v)
	}
	return arr, nil
}

// IntVariable reads the named 32-bit integer variable in full.
func (f *FieldFile) IntVariable(name string) ([]int32, error) {
	if !f.hasVariable(name) {
		return nil, dataUnavailable(f.path+":"+name, fmt.Errorf("no such variable"))
	}
	shape := f.f.Header.Lengths(name)
	n := 1
	for _, s := range shape {
		n *= s
	}
	tmp := make([]int32, n)
	r := f.f.Reader(name, nil, nil)
	if _, err := r.Read(tmp); err != nil {
		return nil, dataUnavailable(f.path+":"+name, err)
	}
	return tmp, nil
}

// Slab reads record tidx of the named time-dependent variable. The returned
// array drops the leading time dimension.
func (f *FieldFile) Slab(name string, tidx int) (*sparse.DenseArray, error) {
	if !f.hasVariable(name) {
		return nil, dataUnavailable(f.path+":"+name, fmt.Errorf("no such variable"))
	}
	shape := f.f.Header.Lengths(name)
	if len(shape) < 2 {
		return nil, dataUnavailable(f.path+":"+name, fmt.Errorf("variable is not time dependent"))
	}
	if tidx < 0 || tidx >= len(f.times) {
		return nil, dataUnavailable(f.path+":"+name, fmt.Errorf("time index %d out of range [0, %d)", tidx, len(f.times)))
	}
	slabShape := shape[1:]
	arr := sparse.ZerosDense(slabShape...)
	begin := make([]int, len(shape))
	end := make([]int, len(shape))
	begin[0], end[0] = tidx, tidx+1
	for i, s := range slabShape {
		end[i+1] = s
	}
	tmp := make([]float32, len(arr.Elements))
	r := f.f.Reader(name, begin, end)
	if _, err := r.Read(tmp); err != nil {
		return nil, dataUnavailable(f.path+":"+name, err)
	}
	for i, v := range tmp {
		arr.Elements[i] = float64(v)
	}
	return arr, nil
}

func (f *FieldFile) hasVariable(name string) bool {
	for _, v := range f.f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// FieldSet presents one or more FieldFiles holding consecutive spans of the
// same time series as a single series with a global time index.
type FieldSet struct {
	files []*FieldFile
	times []float64 // concatenated time values
	file  []int     // file holding each global index
	local []int     // index within that file
}

// OpenFieldSet opens the given field files and concatenates their time
// series in ascending time order.
func OpenFieldSet(paths []string) (*FieldSet, error) {
	if len(paths) == 0 {
		return nil, dataUnavailable("field files", fmt.Errorf("no files given"))
	}
	s := new(FieldSet)
	for _, p := range paths {
		f, err := OpenFieldFile(p)
		if err != nil {
			s.Close()
			return nil, err
		}
		if len(f.Times()) == 0 {
			s.Close()
			return nil, dataUnavailable(p, fmt.Errorf("file contains no time records"))
		}
		s.files = append(s.files, f)
	}
	sort.Slice(s.files, func(i, j int) bool {
		return s.files[i].Times()[0] < s.files[j].Times()[0]
	})
	for fi, f := range s.files {
		for li, t := range f.Times() {
			if n := len(s.times); n > 0 && t <= s.times[n-1] {
				s.Close()
				return nil, dataUnavailable(f.path, fmt.Errorf("time series is not strictly increasing at t=%g", t))
			}
			s.times = append(s.times, t)
			s.file = append(s.file, fi)
			s.local = append(s.local, li)
		}
	}
	return s, nil
}

// Times returns the concatenated time values.
func (s *FieldSet) Times() []float64 { return s.times }

// Slab reads the snapshot of the named variable at global time index tidx.
func (s *FieldSet) Slab(name string, tidx int) (*sparse.DenseArray, error) {
	if tidx < 0 || tidx >= len(s.times) {
		return nil, dataUnavailable(name, fmt.Errorf("time index %d out of range [0, %d)", tidx, len(s.times)))
	}
	return s.files[s.file[tidx]].Slab(name, s.local[tidx])
}

// Bracket returns the pair of snapshots bracketing time t.
func (s *FieldSet) Bracket(t float64) (TimeBracket, error) {
	n := len(s.times)
	if t < s.times[0]-timeEps || t > s.times[n-1]+timeEps {
		return TimeBracket{}, dataUnavailable("time", fmt.Errorf("t=%g outside field data span [%g, %g]", t, s.times[0], s.times[n-1]))
	}
	i1 := sort.SearchFloat64s(s.times, t)
	if i1 == n {
		i1 = n - 1
	}
	i0 := i1
	if s.times[i1] > t && i1 > 0 {
		i0 = i1 - 1
	}
	if i0 == i1 && i1 < n-1 {
		i1++
	}
	return TimeBracket{T0: s.times[i0], T1: s.times[i1], I0: i0, I1: i1}, nil
}

// Close closes all member files.
func (s *FieldSet) Close() error {
	var err error
	for _, f := range s.files {
		if e := f.Close(); err == nil {
			err = e
		}
	}
	return err
}
