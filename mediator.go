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
	"github.com/ctessum/sparse"
)

// A Mediator abstracts the physical source of gridded field data. DataReaders
// obtain every raw slab through a Mediator, transparently whether the owner
// of file access is the local process (SerialMediator) or a remote
// coordinating process reached over RPC.
//
// Read failures surface as *DataUnavailableError and are never retried
// silently; they are fatal to the run.
type Mediator interface {
	// Dim returns the length of the named dimension of the grid metrics
	// file.
	Dim(name string) (int, error)

	// GridVariable returns one static grid variable in full.
	GridVariable(name string) (*sparse.DenseArray, error)

	// GridIntVariable returns one static integer grid variable (connectivity
	// and adjacency tables) in full.
	GridIntVariable(name string) ([]int32, error)

	// FieldAt returns the full snapshot of a time-dependent variable at time
	// index tidx of the field time series.
	FieldAt(name string, tidx int) (*sparse.DenseArray, error)

	// UpdateTimeVars ensures data for the two snapshots bracketing t are
	// available and returns the bracket.
	UpdateTimeVars(t float64) (TimeBracket, error)
}

// SerialMediator reads grid metrics and field data directly from local
// netCDF files. It is the Mediator used in single-process runs and by the
// file-owner rank of a cluster run.
type SerialMediator struct {
	grid   *FieldFile
	fields *FieldSet
}

// NewSerialMediator opens the grid metrics file and the circulation-model
// field files.
func NewSerialMediator(gridFile string, fieldFiles []string) (*SerialMediator, error) {
	grid, err := OpenFieldFile(gridFile)
	if err != nil {
		return nil, err
	}
	fields, err := OpenFieldSet(fieldFiles)
	if err != nil {
		grid.Close()
		return nil, err
	}
	return &SerialMediator{grid: grid, fields: fields}, nil
}

// Dim implements Mediator.
func (m *SerialMediator) Dim(name string) (int, error) { return m.grid.Dim(name) }

// GridVariable implements Mediator.
func (m *SerialMediator) GridVariable(name string) (*sparse.DenseArray, error) {
	return m.grid.Variable(name)
}

// GridIntVariable implements Mediator.
func (m *SerialMediator) GridIntVariable(name string) ([]int32, error) {
	return m.grid.IntVariable(name)
}

// FieldAt implements Mediator.
func (m *SerialMediator) FieldAt(name string, tidx int) (*sparse.DenseArray, error) {
	return m.fields.Slab(name, tidx)
}

// UpdateTimeVars implements Mediator.
func (m *SerialMediator) UpdateTimeVars(t float64) (TimeBracket, error) {
	return m.fields.Bracket(t)
}

// FieldTimes returns the concatenated snapshot times of the field files.
func (m *SerialMediator) FieldTimes() []float64 { return m.fields.Times() }

// Close releases the underlying files.
func (m *SerialMediator) Close() error {
	err := m.grid.Close()
	if err2 := m.fields.Close(); err == nil {
		err = err2
	}
	return err
}
