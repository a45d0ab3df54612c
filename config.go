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

	"github.com/BurntSushi/toml"
)

// RunConfig holds the options for one simulation, normally decoded from a
// TOML file.
type RunConfig struct {
	// MeshFamily selects the circulation model the field files come
	// from: FVCOM, ArakawaA, ROMS or GOTM.
	MeshFamily string

	// GridMetricsFile is the NetCDF file of grid geometry, adjacency and
	// interpolation coefficients produced by the preprocessing tool.
	GridMetricsFile string

	// FieldFiles are the NetCDF files holding the circulation model's
	// time-series output. Their time axes are concatenated.
	FieldFiles []string

	// SeedFile lists particle release positions, one per line:
	// group x y z.
	SeedFile string

	// OutputFile receives the particle trajectories.
	OutputFile string

	// TimeStart, TimeEnd and TimeStep define the stepping loop, in the
	// time units of the field files.
	TimeStart float64
	TimeEnd   float64
	TimeStep  float64

	// RecordInterval is the number of time steps between trajectory
	// records.
	RecordInterval int

	// Integrator selects the advection scheme: Euler or RK4.
	Integrator string

	// HorizontalDiffusivity and VerticalDiffusivity scale the random
	// walk term, m^2/s. Zero disables the corresponding component.
	HorizontalDiffusivity float64
	VerticalDiffusivity   float64

	// MaxReflections bounds boundary-reflection retries before a
	// particle is declared stranded.
	MaxReflections int

	// RandomSeed is the base seed for the per-worker random sources.
	RandomSeed int64

	// Workers lists the hostnames of subscriber processes for a
	// distributed run; each is dialed on RPCPort. Empty means a serial
	// run.
	Workers []string

	// CoordinatorAddr is the host:port at which subscriber processes can
	// reach the file-owning process.
	CoordinatorAddr string

	// RPCPort is the port subscriber processes listen on.
	RPCPort string
}

// LoadRunConfig reads and validates a TOML run configuration.
func LoadRunConfig(path string) (*RunConfig, error) {
	cfg := &RunConfig{
		MeshFamily:     "FVCOM",
		Integrator:     "RK4",
		RecordInterval: 1,
		MaxReflections: 10,
		RPCPort:        "6060",
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("pylag: reading configuration %s: %v", path, err)
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Check validates the configuration.
func (c *RunConfig) Check() error {
	switch c.MeshFamily {
	case "FVCOM", "ArakawaA", "ROMS", "GOTM":
	default:
		return fmt.Errorf("pylag: unsupported circulation model %q", c.MeshFamily)
	}
	switch c.Integrator {
	case "Euler", "RK4":
	default:
		return fmt.Errorf("pylag: unsupported integration scheme %q", c.Integrator)
	}
	if c.GridMetricsFile == "" {
		return fmt.Errorf("pylag: GridMetricsFile is required")
	}
	if len(c.FieldFiles) == 0 {
		return fmt.Errorf("pylag: at least one field file is required")
	}
	if c.SeedFile == "" {
		return fmt.Errorf("pylag: SeedFile is required")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("pylag: OutputFile is required")
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("pylag: TimeStep must be positive")
	}
	if c.TimeEnd <= c.TimeStart {
		return fmt.Errorf("pylag: TimeEnd must follow TimeStart")
	}
	if c.RecordInterval < 1 {
		return fmt.Errorf("pylag: RecordInterval must be at least 1")
	}
	if c.MaxReflections < 1 {
		return fmt.Errorf("pylag: MaxReflections must be at least 1")
	}
	if c.HorizontalDiffusivity < 0 || c.VerticalDiffusivity < 0 {
		return fmt.Errorf("pylag: diffusivities must not be negative")
	}
	if len(c.Workers) > 0 && c.CoordinatorAddr == "" {
		return fmt.Errorf("pylag: CoordinatorAddr is required for a distributed run")
	}
	return nil
}

// NSteps returns the number of global time steps in the run. The quotient
// is rounded so that a span that is a whole number of steps up to floating
// point error keeps its final step.
func (c *RunConfig) NSteps() int {
	return int(math.Round((c.TimeEnd - c.TimeStart) / c.TimeStep))
}
