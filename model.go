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
	log "github.com/sirupsen/logrus"
)

// VerticalCoord names the convention a mesh family uses for the particle z
// coordinate.
type VerticalCoord int

const (
	// SigmaCoord: z in [-1, 0], 0 at the free surface.
	SigmaCoord VerticalCoord = iota
	// DepthCoord: z in meters below the free surface, increasing downward.
	DepthCoord
)

// verticalCoordFor returns the convention for a mesh family name accepted
// by NewDataReader.
func verticalCoordFor(family string) VerticalCoord {
	if family == "ArakawaA" {
		return DepthCoord
	}
	return SigmaCoord
}

// layerLocator is implemented by readers with discrete vertical layers.
type layerLocator interface {
	LocateLayer(z float64) (kLow, kUpp int, omega float64)
}

// Model owns a worker's particle shard and advances it through time. The
// sequence of calls per global step is UpdateReadingFrame, then Step; on
// record steps, Record produces the particle state for the writer.
type Model struct {
	reader   DataReader
	integ    Integrator
	rw       *RandomWalk // nil disables the stochastic term
	boundary BoundaryResolver
	vcoord   VerticalCoord

	particles []Particle
}

// NewModel assembles a model from its parts. rw may be nil.
func NewModel(reader DataReader, integ Integrator, rw *RandomWalk, maxReflections int, vcoord VerticalCoord) *Model {
	return &Model{
		reader:   reader,
		integ:    integ,
		rw:       rw,
		boundary: BoundaryResolver{MaxReflections: maxReflections},
		vcoord:   vcoord,
	}
}

// Particles exposes the model's particle shard.
func (m *Model) Particles() []Particle { return m.particles }

// Seed places the given particles at time t. Seeds whose position has no
// host cell enter the run with in_domain false and never move. The host
// found for each seed primes the search for the next, since seed files
// commonly list nearby release points consecutively.
func (m *Model) Seed(seeds []Seed, t float64, firstID int) {
	m.particles = make([]Particle, len(seeds))
	guess := HostNotFound
	for i, s := range seeds {
		p := &m.particles[i]
		p.ID = firstID + i
		p.GroupID = s.GroupID
		p.X, p.Y, p.Z = s.X, s.Y, s.Z
		p.HostElem = m.reader.FindHost(s.X, s.Y, guess)
		if p.HostElem == HostNotFound {
			p.InDomain = false
			log.WithFields(log.Fields{
				"particle": p.ID,
				"x":        s.X,
				"y":        s.Y,
			}).Warn("seed position outside domain")
			continue
		}
		p.InDomain = true
		guess = p.HostElem
		m.refresh(p, t)
	}
}

// UpdateReadingFrame refreshes the reader's snapshot cache so that the
// whole step [t, t+dt] interpolates without leaving the bracket. The run
// configuration guarantees no field snapshot time falls strictly inside a
// step, so bracketing the midpoint brackets the endpoints.
func (m *Model) UpdateReadingFrame(t, dt float64) error {
	return m.reader.UpdateTimeVars(t + 0.5*dt)
}

// Step advances every in-domain particle from t to t+dt and commits the
// results. Stranded particles are frozen in place with in_domain cleared;
// the run continues.
func (m *Model) Step(t, dt float64) {
	for i := range m.particles {
		p := &m.particles[i]
		if !p.InDomain {
			continue
		}
		var d Delta
		if !m.integ.Advect(m.reader, p, t, dt, &d) {
			// A multi-stage trial position left the domain. Resolve the
			// step from the plain one-stage displacement instead.
			d = Delta{}
			EulerIntegrator{}.Advect(m.reader, p, t, dt, &d)
		}
		if m.rw != nil {
			m.rw.Displace(dt, &d)
		}
		x, y, host, state := m.boundary.Resolve(m.reader, p, p.X+d.X, p.Y+d.Y)
		if state == MoveStranded {
			p.InDomain = false
			continue
		}
		p.X, p.Y, p.HostElem = x, y, host
		p.Z = m.applyVerticalBoundary(p.Z + d.Z)
		m.refresh(p, t+dt)
	}
}

// refresh recomputes the particle's cached environment fields after a
// committed move.
func (m *Model) refresh(p *Particle, t float64) {
	p.H = m.reader.Bathymetry(p.X, p.Y, p.HostElem)
	p.Zeta = m.reader.SurfaceElevation(t, p.X, p.Y, p.HostElem)
	if m.vcoord == DepthCoord {
		// Keep depth within the instantaneous water column.
		if bottom := p.H + p.Zeta; p.Z > bottom {
			p.Z = bottom
		}
	}
	if ll, ok := m.reader.(layerLocator); ok {
		_, p.HostLayer, _ = ll.LocateLayer(p.Z)
	}
}

// applyVerticalBoundary reflects z off the surface and bottom. For depth
// coordinates the bottom varies with the water column and is handled in
// refresh.
func (m *Model) applyVerticalBoundary(z float64) float64 {
	if m.vcoord == DepthCoord {
		if z < 0 {
			z = -z
		}
		return z
	}
	for z < -1 || z > 0 {
		if z > 0 {
			z = -z
		}
		if z < -1 {
			z = -2 - z
		}
	}
	return z
}

// RecordFrame is one snapshot of particle state handed to the writer.
type RecordFrame struct {
	Time float64
	Vars map[string][]float64
}

// Record captures the committed state of every particle, stranded ones
// included at their frozen positions.
func (m *Model) Record(t float64) RecordFrame {
	n := len(m.particles)
	f := RecordFrame{
		Time: t,
		Vars: map[string][]float64{
			"xpos": make([]float64, n),
			"ypos": make([]float64, n),
			"zpos": make([]float64, n),
			"h":    make([]float64, n),
			"zeta": make([]float64, n),
		},
	}
	for i := range m.particles {
		p := &m.particles[i]
		f.Vars["xpos"][i] = p.X
		f.Vars["ypos"][i] = p.Y
		f.Vars["zpos"][i] = p.Z
		f.Vars["h"][i] = p.H
		f.Vars["zeta"][i] = p.Zeta
	}
	return f
}
