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

package cluster

import (
	"fmt"
	"net"
	"net/http"
	"net/rpc"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/jimc101/PyLag"
)

// Worker integrates one particle shard on a subscriber rank. It should not
// be interacted with directly, but it is exported to meet RPC requirements.
type Worker struct {
	rank  int
	med   *RPCMediator
	model *pylag.Model
}

// InitArgs carries everything a subscriber needs to build its model.
type InitArgs struct {
	Rank      int
	OwnerAddr string // host:port of the file owner's DataServer
	Config    pylag.RunConfig
	Seeds     []pylag.Seed
	FirstID   int
}

// StepArgs carries one global time step.
type StepArgs struct {
	Time, Dt float64
}

// GatherReply carries a worker's committed particle state.
type GatherReply struct {
	Frame pylag.RecordFrame
}

// Init builds the worker's data reader and model and seeds its shard. It
// meets the requirements for use with rpc.Call.
func (w *Worker) Init(args *InitArgs, _ *Empty) error {
	med, err := NewRPCMediator(args.OwnerAddr)
	if err != nil {
		return fmt.Errorf("cluster: rank %d dialing file owner: %v", args.Rank, err)
	}
	model, err := pylag.NewModelFromConfig(&args.Config, med, args.Rank)
	if err != nil {
		med.Close()
		return err
	}
	if err := model.UpdateReadingFrame(args.Config.TimeStart, args.Config.TimeStep); err != nil {
		med.Close()
		return err
	}
	model.Seed(args.Seeds, args.Config.TimeStart, args.FirstID)
	w.rank, w.med, w.model = args.Rank, med, model
	log.WithFields(log.Fields{
		"rank":      args.Rank,
		"particles": len(args.Seeds),
	}).Info("worker initialized")
	return nil
}

// Step advances the worker's shard over one global time step. It meets the
// requirements for use with rpc.Call.
func (w *Worker) Step(args *StepArgs, _ *Empty) error {
	if w.model == nil {
		return fmt.Errorf("cluster: rank %d stepped before Init", w.rank)
	}
	if err := w.model.UpdateReadingFrame(args.Time, args.Dt); err != nil {
		return err
	}
	w.model.Step(args.Time, args.Dt)
	return nil
}

// Gather reports the shard's committed particle state. It meets the
// requirements for use with rpc.Call.
func (w *Worker) Gather(args *TimeArg, reply *GatherReply) error {
	if w.model == nil {
		return fmt.Errorf("cluster: rank %d gathered before Init", w.rank)
	}
	reply.Frame = w.model.Record(args.T)
	return nil
}

// Exit shuts down the worker. The file owner calls it both on normal
// completion and for a collective abort. It meets the requirements for use
// with rpc.Call.
func (w *Worker) Exit(_, _ *Empty) error {
	os.Exit(0)
	return nil
}

// WorkerListen starts serving RPC requests on port. It is a top-level
// function rather than a method of w to avoid problems with RPC
// registration.
func WorkerListen(w *Worker, port string) error {
	if err := rpc.Register(w); err != nil {
		return err
	}
	rpc.HandleHTTP()
	l, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}
	log.WithField("port", port).Info("worker listening")
	return http.Serve(l, nil)
}
