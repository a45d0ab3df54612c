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

	log "github.com/sirupsen/logrus"
)

// MoveState is the outcome of resolving one proposed particle move.
type MoveState int

const (
	// MoveOK: the proposed position is inside the domain; commit as-is.
	MoveOK MoveState = iota
	// MoveReflected: the move crossed a boundary and was folded back
	// inside; commit the corrected position.
	MoveReflected
	// MoveStranded: no valid position was found within the retry bound;
	// the particle stays at its last valid position and leaves the
	// active population.
	MoveStranded
)

// BoundaryResolver turns proposed moves that exit the domain into reflected
// moves, or strands the particle when reflection fails repeatedly.
type BoundaryResolver struct {
	MaxReflections int
}

// Resolve takes a particle at a known-valid position and a proposed new
// position. It returns the position and host cell to commit together with
// how the move was classified. On MoveStranded the returned position is the
// particle's current one and the host cell is unchanged.
func (br *BoundaryResolver) Resolve(dr DataReader, p *Particle, xNew, yNew float64) (x, y float64, host int, state MoveState) {
	host = dr.FindHost(xNew, yNew, p.HostElem)
	if host != HostNotFound {
		return xNew, yNew, host, MoveOK
	}
	xOld, yOld := p.X, p.Y
	elem := p.HostElem
	for n := 0; n < br.MaxReflections; n++ {
		c, ok := dr.BoundaryIntersection(xOld, yOld, xNew, yNew, elem)
		if !ok {
			break
		}
		xNew, yNew = reflect(c, xNew, yNew)
		host = dr.FindHost(xNew, yNew, c.Elem)
		if host != HostNotFound {
			return xNew, yNew, host, MoveReflected
		}
		// The reflected point is still outside. Restart the segment from
		// the intersection point, seeded with the element the walk ended
		// in; the original host may be several elements behind by now.
		xOld, yOld = c.Xi, c.Yi
		elem = c.Elem
	}
	log.WithFields(log.Fields{
		"particle": p.ID,
		"x":        xNew,
		"y":        yNew,
	}).Warn("particle stranded at boundary")
	return p.X, p.Y, p.HostElem, MoveStranded
}

// reflect folds the portion of the displacement beyond the intersection
// point back across the boundary segment.
func reflect(c BoundaryCrossing, x, y float64) (float64, float64) {
	// Unit normal of the boundary segment.
	ex, ey := c.X2-c.X1, c.Y2-c.Y1
	l := math.Hypot(ex, ey)
	nx, ny := -ey/l, ex/l

	// Component of the overshoot along the normal, removed twice.
	dx, dy := x-c.Xi, y-c.Yi
	dn := dx*nx + dy*ny
	return c.Xi + dx - 2*dn*nx, c.Yi + dy - 2*dn*ny
}
