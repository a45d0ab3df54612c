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
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"

	"github.com/jimc101/PyLag"
)

// Coordinator is the file-owning rank of a distributed run. It serves field
// data to the subscribers, integrates its own particle shard and drives the
// global stepping loop.
type Coordinator struct {
	cfg     *pylag.RunConfig
	med     *pylag.SerialMediator
	model   *pylag.Model
	clients []*rpc.Client // index r-1 serves rank r
	shards  [][2]int
	nTotal  int
}

// RunDistributed executes a distributed simulation as rank 0. The
// subscriber processes listed in cfg.Workers must already be listening.
func RunDistributed(cfg *pylag.RunConfig) error {
	c := &Coordinator{cfg: cfg}
	if err := c.setup(); err != nil {
		c.abort()
		return err
	}
	err := c.loop()
	c.shutdown()
	if err != nil {
		return err
	}
	log.Info("simulation finished")
	return nil
}

func (c *Coordinator) setup() error {
	med, err := pylag.NewSerialMediator(c.cfg.GridMetricsFile, c.cfg.FieldFiles)
	if err != nil {
		return err
	}
	c.med = med
	if err := c.serveData(); err != nil {
		return err
	}

	sf, err := os.Open(c.cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("cluster: opening seed file: %v", err)
	}
	seeds, err := pylag.ReadSeeds(sf)
	sf.Close()
	if err != nil {
		return err
	}
	c.nTotal = len(seeds)

	nranks := len(c.cfg.Workers) + 1
	c.shards, err = Partition(len(seeds), nranks)
	if err != nil {
		return err
	}

	if err := pylag.CheckFieldAlignment(med, c.cfg); err != nil {
		return err
	}
	c.model, err = pylag.NewModelFromConfig(c.cfg, med, 0)
	if err != nil {
		return err
	}
	if err := c.model.UpdateReadingFrame(c.cfg.TimeStart, c.cfg.TimeStep); err != nil {
		return err
	}
	s0 := c.shards[0]
	c.model.Seed(seeds[s0[0]:s0[1]], c.cfg.TimeStart, s0[0])

	for i, addr := range c.cfg.Workers {
		rank := i + 1
		client, err := c.dial(addr)
		if err != nil {
			return err
		}
		c.clients = append(c.clients, client)
		sh := c.shards[rank]
		args := &InitArgs{
			Rank:      rank,
			OwnerAddr: c.cfg.CoordinatorAddr,
			Config:    *c.cfg,
			Seeds:     seeds[sh[0]:sh[1]],
			FirstID:   sh[0],
		}
		if err := client.Call("Worker.Init", args, &Empty{}); err != nil {
			return fmt.Errorf("cluster: initializing rank %d: %v", rank, err)
		}
	}
	log.WithFields(log.Fields{
		"ranks":     nranks,
		"particles": c.nTotal,
	}).Info("starting distributed simulation")
	return nil
}

// serveData starts the DataServer the subscriber ranks read field data
// through.
func (c *Coordinator) serveData() error {
	srv := rpc.NewServer()
	if err := srv.Register(NewDataServer(c.med)); err != nil {
		return err
	}
	srv.HandleHTTP(rpc.DefaultRPCPath, rpc.DefaultDebugPath)
	_, port, err := net.SplitHostPort(c.cfg.CoordinatorAddr)
	if err != nil {
		return fmt.Errorf("cluster: bad CoordinatorAddr: %v", err)
	}
	l, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}
	go http.Serve(l, nil)
	return nil
}

// dial connects to a subscriber, retrying while it starts up.
func (c *Coordinator) dial(addr string) (*rpc.Client, error) {
	var client *rpc.Client
	err := backoff.RetryNotify(
		func() error {
			var err error
			client, err = rpc.DialHTTP("tcp", addr+":"+c.cfg.RPCPort)
			return err
		},
		backoff.NewExponentialBackOff(),
		func(err error, d time.Duration) {
			log.WithField("worker", addr).Infof("%v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("cluster: dialing %v: %v", addr, err)
	}
	return client, nil
}

// loop runs the global stepping loop. Each step is a broadcast: every rank
// observes the same time before integrating, and a failure on any rank
// aborts the whole run.
func (c *Coordinator) loop() error {
	w, err := pylag.NewTrajectoryWriter(c.cfg.OutputFile, c.nTotal)
	if err != nil {
		return err
	}
	record := func(t float64) error {
		frame, err := c.gather(t)
		if err != nil {
			return err
		}
		return w.WriteFrame(frame)
	}
	if err := record(c.cfg.TimeStart); err != nil {
		w.Close()
		return err
	}
	for n := 0; n < c.cfg.NSteps(); n++ {
		t := c.cfg.TimeStart + float64(n)*c.cfg.TimeStep
		if err := c.step(t); err != nil {
			w.Close()
			return err
		}
		if (n+1)%c.cfg.RecordInterval == 0 {
			if err := record(t + c.cfg.TimeStep); err != nil {
				w.Close()
				return err
			}
		}
	}
	return w.Close()
}

// step broadcasts one global time step and steps the local shard while the
// subscribers work.
func (c *Coordinator) step(t float64) error {
	args := &StepArgs{Time: t, Dt: c.cfg.TimeStep}
	calls := make([]*rpc.Call, len(c.clients))
	for i, client := range c.clients {
		calls[i] = client.Go("Worker.Step", args, &Empty{}, nil)
	}
	if err := c.model.UpdateReadingFrame(t, c.cfg.TimeStep); err != nil {
		return err
	}
	c.model.Step(t, c.cfg.TimeStep)
	for i, call := range calls {
		<-call.Done
		if call.Error != nil {
			return fmt.Errorf("cluster: rank %d at t=%g: %v", i+1, t, call.Error)
		}
	}
	return nil
}

// gather merges every rank's committed particle state into one frame. The
// shards are contiguous and gathered in rank order, so concatenation
// restores the global particle order.
func (c *Coordinator) gather(t float64) (pylag.RecordFrame, error) {
	frame := c.model.Record(t)
	for i, client := range c.clients {
		var reply GatherReply
		if err := client.Call("Worker.Gather", &TimeArg{T: t}, &reply); err != nil {
			return frame, fmt.Errorf("cluster: gathering from rank %d: %v", i+1, err)
		}
		for name, vals := range reply.Frame.Vars {
			frame.Vars[name] = append(frame.Vars[name], vals...)
		}
	}
	return frame, nil
}

// shutdown releases the subscribers and the files after a completed run.
func (c *Coordinator) shutdown() {
	for _, client := range c.clients {
		client.Call("Worker.Exit", &Empty{}, &Empty{})
		client.Close()
	}
	if c.med != nil {
		c.med.Close()
	}
}

// abort tears the run down after a setup failure. Per-rank partial results
// are not meaningful, so every subscriber exits too.
func (c *Coordinator) abort() {
	log.Error("aborting distributed run")
	c.shutdown()
}
