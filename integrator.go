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
	"math"
	"math/rand"
)

// Delta accumulates a particle's position increment over one time step.
// Integration stages and the random-walk term add into it; the particle
// itself is never touched until the caller commits the total.
type Delta struct {
	X, Y, Z float64
}

// Add sums another increment into d.
func (d *Delta) Add(o Delta) {
	d.X += o.X
	d.Y += o.Y
	d.Z += o.Z
}

// Integrator produces a deterministic position increment for one particle
// over one time step by sampling the velocity field at trial positions.
type Integrator interface {
	// Advect evaluates the scheme for p over [t, t+dt] and adds the
	// resulting displacement into d. A trial position that leaves the
	// domain aborts the evaluation: Advect reports false, leaves d
	// untouched and the caller hands the particle to the boundary
	// resolver using the plain Euler displacement.
	Advect(dr DataReader, p *Particle, t, dt float64, d *Delta) bool
}

// NewIntegrator returns the named scheme, one of "Euler" or "RK4".
func NewIntegrator(name string) (Integrator, error) {
	switch name {
	case "Euler":
		return EulerIntegrator{}, nil
	case "RK4":
		return RK4Integrator{}, nil
	}
	return nil, fmt.Errorf("pylag: unsupported integration scheme %q", name)
}

// EulerIntegrator is the explicit first-order scheme: one velocity
// evaluation at the particle's current position.
type EulerIntegrator struct{}

func (EulerIntegrator) Advect(dr DataReader, p *Particle, t, dt float64, d *Delta) bool {
	u, v, w := dr.Velocity(t, p.X, p.Y, p.Z, p.HostElem)
	d.Add(Delta{X: u * dt, Y: v * dt, Z: w * dt})
	return true
}

// RK4Integrator is the classic fourth-order Runge-Kutta scheme. Each stage
// builds a trial position from the particle's unmodified state and the
// previous stage's velocity; the host cell for each trial position is found
// with the last known host as the search guess.
type RK4Integrator struct{}

func (RK4Integrator) Advect(dr DataReader, p *Particle, t, dt float64, d *Delta) bool {
	type stage struct {
		dtFrac float64 // time offset of the stage, as a fraction of dt
		weight float64
	}
	stages := []stage{
		{0, 1.0 / 6.0},
		{0.5, 1.0 / 3.0},
		{0.5, 1.0 / 3.0},
		{1, 1.0 / 6.0},
	}
	var sum Delta
	ku, kv, kw := 0.0, 0.0, 0.0
	host := p.HostElem
	for i, s := range stages {
		x, y, z := p.X, p.Y, p.Z
		if i > 0 {
			x += s.dtFrac * dt * ku
			y += s.dtFrac * dt * kv
			z += s.dtFrac * dt * kw
			host = dr.FindHost(x, y, p.HostElem)
			if host == HostNotFound {
				return false
			}
		}
		ku, kv, kw = dr.Velocity(t+s.dtFrac*dt, x, y, z, host)
		sum.Add(Delta{X: s.weight * ku * dt, Y: s.weight * kv * dt, Z: s.weight * kw * dt})
	}
	d.Add(sum)
	return true
}

// RandomWalk adds a naive-random-walk displacement scaled by constant
// horizontal and vertical diffusivities. Each worker owns its generator,
// seeded once at startup, so parallel runs are reproducible and workers
// draw decorrelated sequences.
type RandomWalk struct {
	Kh, Kv float64 // horizontal and vertical diffusivity, m^2/s
	rng    *rand.Rand
}

// NewRandomWalk creates a random-walk term for the worker with the given
// rank. Distinct ranks derive distinct streams from the same base seed.
func NewRandomWalk(kh, kv float64, baseSeed int64, rank int) *RandomWalk {
	return &RandomWalk{
		Kh:  kh,
		Kv:  kv,
		rng: rand.New(rand.NewSource(baseSeed + 1_000_003*int64(rank))),
	}
}

// Displace adds the stochastic displacement for one step into d.
// The standard deviation of each component is sqrt(2 K dt).
func (rw *RandomWalk) Displace(dt float64, d *Delta) {
	if rw.Kh > 0 {
		sh := math.Sqrt(2 * rw.Kh * dt)
		d.X += sh * rw.rng.NormFloat64()
		d.Y += sh * rw.rng.NormFloat64()
	}
	if rw.Kv > 0 {
		d.Z += math.Sqrt(2*rw.Kv*dt) * rw.rng.NormFloat64()
	}
}
