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
	"os"

	log "github.com/sirupsen/logrus"
)

// NewModelFromConfig builds the model for one worker's seed shard. The
// mediator abstracts whether field data comes from local files or from the
// file-owning process.
func NewModelFromConfig(cfg *RunConfig, med Mediator, rank int) (*Model, error) {
	reader, err := NewDataReader(cfg.MeshFamily, med)
	if err != nil {
		return nil, err
	}
	integ, err := NewIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	var rw *RandomWalk
	if cfg.HorizontalDiffusivity > 0 || cfg.VerticalDiffusivity > 0 {
		rw = NewRandomWalk(cfg.HorizontalDiffusivity, cfg.VerticalDiffusivity, cfg.RandomSeed, rank)
	}
	return NewModel(reader, integ, rw, cfg.MaxReflections, verticalCoordFor(cfg.MeshFamily)), nil
}

// checkTimeAlignment verifies that no field snapshot time falls strictly
// inside a step, so that every step's interval is covered by a single
// snapshot bracket.
func checkTimeAlignment(times []float64, start, dt float64) error {
	for _, ft := range times {
		r := math.Mod(ft-start, dt)
		if r > timeEps && dt-r > timeEps {
			return fmt.Errorf("pylag: field snapshot time %g is not aligned with the %g s time step", ft, dt)
		}
	}
	return nil
}

// CheckFieldAlignment verifies the configured time step against the field
// snapshot times.
func CheckFieldAlignment(med *SerialMediator, cfg *RunConfig) error {
	return checkTimeAlignment(med.FieldTimes(), cfg.TimeStart, cfg.TimeStep)
}

// Run executes a serial simulation: one process owns the files, all the
// particles and the output.
func Run(cfg *RunConfig) error {
	med, err := NewSerialMediator(cfg.GridMetricsFile, cfg.FieldFiles)
	if err != nil {
		return err
	}
	defer med.Close()
	if err := checkTimeAlignment(med.FieldTimes(), cfg.TimeStart, cfg.TimeStep); err != nil {
		return err
	}

	model, err := NewModelFromConfig(cfg, med, 0)
	if err != nil {
		return err
	}

	sf, err := os.Open(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("pylag: opening seed file: %v", err)
	}
	seeds, err := ReadSeeds(sf)
	sf.Close()
	if err != nil {
		return err
	}

	if err := model.UpdateReadingFrame(cfg.TimeStart, cfg.TimeStep); err != nil {
		return err
	}
	model.Seed(seeds, cfg.TimeStart, 0)
	log.WithFields(log.Fields{
		"particles": len(seeds),
		"steps":     cfg.NSteps(),
	}).Info("starting simulation")

	w, err := NewTrajectoryWriter(cfg.OutputFile, len(seeds))
	if err != nil {
		return err
	}
	if err := w.WriteFrame(model.Record(cfg.TimeStart)); err != nil {
		w.Close()
		return err
	}

	for n := 0; n < cfg.NSteps(); n++ {
		t := cfg.TimeStart + float64(n)*cfg.TimeStep
		if err := model.UpdateReadingFrame(t, cfg.TimeStep); err != nil {
			w.Close()
			return err
		}
		model.Step(t, cfg.TimeStep)
		if (n+1)%cfg.RecordInterval == 0 {
			if err := w.WriteFrame(model.Record(t + cfg.TimeStep)); err != nil {
				w.Close()
				return err
			}
		}
	}
	log.Info("simulation finished")
	return w.Close()
}
