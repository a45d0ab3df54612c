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

// Package cmd holds the pylag command-line interface.
package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jimc101/PyLag"
	"github.com/jimc101/PyLag/cluster"
)

// These variables specify configuration flags.
var (
	// configFile specifies the location of the configuration file.
	configFile string

	// rpcPort is the port used for RPC communication with worker
	// processes.
	rpcPort string

	// metricsIn and metricsOut name the raw circulation-model output and
	// the grid metrics file the metrics command derives from it.
	metricsIn  string
	metricsOut string

	// verbose enables debug logging.
	verbose bool
)

func init() {
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(workerCmd)
	Root.AddCommand(metricsCmd)

	Root.PersistentFlags().StringVar(&configFile, "config", "./pylag.toml", "configuration file location")
	Root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	workerCmd.Flags().StringVar(&rpcPort, "rpcport", "6060",
		"Set the port to be used for RPC communication.")

	metricsCmd.Flags().StringVar(&metricsIn, "in", "", "raw circulation-model output file")
	metricsCmd.Flags().StringVar(&metricsOut, "out", "./grid_metrics.nc", "grid metrics file to create")
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "pylag",
	Short: "An offline Lagrangian particle-tracking model.",
	Long: `PyLag tracks particles through saved ocean circulation model output.
Use the subcommands specified below to access the model functionality.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	DisableAutoGenTag: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of PyLag.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("PyLag v%s\n", pylag.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a particle-tracking simulation.",
	Long: `run executes the simulation described by the configuration file.
If the configuration lists worker addresses, this process becomes the
file-owning coordinator of a distributed run; the workers must already be
started with 'pylag worker'. Otherwise the run is serial.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pylag.LoadRunConfig(configFile)
		if err != nil {
			return err
		}
		if len(cfg.Workers) > 0 {
			return cluster.RunDistributed(cfg)
		}
		return pylag.Run(cfg)
	},
	DisableAutoGenTag: true,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start a simulation worker.",
	Long: `worker starts a process that waits for a coordinator to assign it a
particle shard. It reads field data through the coordinator rather than
opening any files itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cluster.WorkerListen(new(cluster.Worker), rpcPort)
	},
	DisableAutoGenTag: true,
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Create a grid metrics file",
	Long: `metrics derives a grid metrics file from raw unstructured-mesh
circulation model output: the element adjacency table is rewritten in the
canonical edge order and the velocity-gradient coefficients are permuted to
match. Simulations consume the result read-only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if metricsIn == "" {
			return fmt.Errorf("the --in flag is required")
		}
		return pylag.BuildGridMetrics(metricsIn, metricsOut)
	},
	DisableAutoGenTag: true,
}
