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
	"strings"
	"testing"
)

const testConfigTOML = `
GridMetricsFile = "grid_metrics.nc"
FieldFiles = ["fields_000.nc", "fields_001.nc"]
SeedFile = "seeds.dat"
OutputFile = "out.nc"
TimeStart = 0.0
TimeEnd = 3600.0
TimeStep = 60.0
HorizontalDiffusivity = 1.5
`

func loadConfigString(t *testing.T, text string) (*RunConfig, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pylag.toml")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return LoadRunConfig(path)
}

func TestLoadRunConfigDefaults(t *testing.T) {
	cfg, err := loadConfigString(t, testConfigTOML)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MeshFamily != "FVCOM" {
		t.Errorf("MeshFamily = %q, want FVCOM", cfg.MeshFamily)
	}
	if cfg.Integrator != "RK4" {
		t.Errorf("Integrator = %q, want RK4", cfg.Integrator)
	}
	if cfg.RecordInterval != 1 {
		t.Errorf("RecordInterval = %d, want 1", cfg.RecordInterval)
	}
	if cfg.MaxReflections != 10 {
		t.Errorf("MaxReflections = %d, want 10", cfg.MaxReflections)
	}
	if cfg.RPCPort != "6060" {
		t.Errorf("RPCPort = %q, want 6060", cfg.RPCPort)
	}
	if len(cfg.FieldFiles) != 2 {
		t.Errorf("FieldFiles = %v, want two entries", cfg.FieldFiles)
	}
	if cfg.HorizontalDiffusivity != 1.5 {
		t.Errorf("HorizontalDiffusivity = %g, want 1.5", cfg.HorizontalDiffusivity)
	}
	if n := cfg.NSteps(); n != 60 {
		t.Errorf("NSteps = %d, want 60", n)
	}
}

func TestLoadRunConfigOverrides(t *testing.T) {
	text := testConfigTOML + `
MeshFamily = "ROMS"
Integrator = "Euler"
RecordInterval = 6
Workers = ["host1", "host2"]
CoordinatorAddr = "host0:6061"
`
	cfg, err := loadConfigString(t, text)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MeshFamily != "ROMS" || cfg.Integrator != "Euler" || cfg.RecordInterval != 6 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Workers) != 2 || cfg.CoordinatorAddr != "host0:6061" {
		t.Errorf("cluster settings not applied: %+v", cfg)
	}
}

func TestRunConfigCheck(t *testing.T) {
	cases := []struct {
		extra string
		want  string
	}{
		{`MeshFamily = "POM"`, "circulation model"},
		{`Integrator = "RK45"`, "integration scheme"},
		{`TimeStep = -1.0`, "TimeStep"},
		{`TimeEnd = -10.0`, "TimeEnd"},
		{`RecordInterval = 0`, "RecordInterval"},
		{`MaxReflections = 0`, "MaxReflections"},
		{`VerticalDiffusivity = -0.1`, "diffusivities"},
		{`Workers = ["host1"]`, "CoordinatorAddr"},
	}
	for _, c := range cases {
		if _, err := loadConfigString(t, testConfigTOML+"\n"+c.extra); err == nil {
			t.Errorf("config with %s should be rejected", c.extra)
		} else if !strings.Contains(err.Error(), c.want) {
			t.Errorf("config with %s: error %q does not mention %q", c.extra, err, c.want)
		}
	}
	for _, field := range []string{"GridMetricsFile", "SeedFile", "OutputFile"} {
		text := strings.Replace(testConfigTOML, field, "# "+field, 1)
		if _, err := loadConfigString(t, text); err == nil {
			t.Errorf("config without %s should be rejected", field)
		}
	}
}

func TestNStepsInexactSpan(t *testing.T) {
	cases := []struct {
		start, end, dt float64
		want           int
	}{
		{0, 0.3, 0.1, 3}, // 0.3/0.1 is just under 3 in floating point
		{0, 100, 50, 2},
		{0, 3600, 60, 60},
	}
	for _, c := range cases {
		cfg := &RunConfig{TimeStart: c.start, TimeEnd: c.end, TimeStep: c.dt}
		if n := cfg.NSteps(); n != c.want {
			t.Errorf("NSteps(%g, %g, %g) = %d, want %d", c.start, c.end, c.dt, n, c.want)
		}
	}
}
