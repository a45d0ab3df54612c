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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// HostNotFound is the sentinel host element index for a position that lies
// outside the model domain.
const HostNotFound = -1

// Particle holds the state of a single tracked particle.
//
// Whenever InDomain is true, HostElem is the index of the mesh element whose
// extent contains (X, Y). The Model maintains this invariant across committed
// steps; transient trial positions evaluated inside an integration step never
// touch it.
type Particle struct {
	ID      int
	GroupID int

	// Position in model coordinates. The meaning of Z depends on the mesh
	// family: a sigma coordinate in [-1, 0] for terrain-following grids
	// (FVCOM, GOTM), depth below the free surface in meters for z-level
	// grids (Arakawa A, ROMS).
	X, Y, Z float64

	// HostElem is the index of the horizontal mesh element containing
	// (X, Y), or HostNotFound. HostLayer is the index of the vertical layer
	// containing Z, where the mesh family has one.
	HostElem  int
	HostLayer int

	// Local environment at the committed position.
	H    float64 // bathymetric depth [m]
	Zeta float64 // sea surface elevation [m]

	InDomain bool
}

// A Seed describes the initial state of one particle.
type Seed struct {
	GroupID int
	X, Y, Z float64
}

// ReadSeeds reads particle seed positions from r. The format is one seed per
// line: group ID followed by x, y and z coordinates, whitespace separated.
// Blank lines and lines starting with '#' are skipped.
func ReadSeeds(r io.Reader) ([]Seed, error) {
	var seeds []Seed
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var s Seed
		if _, err := fmt.Sscan(text, &s.GroupID, &s.X, &s.Y, &s.Z); err != nil {
			return nil, fmt.Errorf("pylag: reading seed file line %d: %v", line, err)
		}
		seeds = append(seeds, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pylag: reading seed file: %v", err)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("pylag: seed file contains no particles")
	}
	return seeds, nil
}
