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
	"net/rpc"

	"github.com/ctessum/sparse"
	"github.com/jimc101/PyLag"
)

// DataServer exposes the file owner's mediator over RPC so that subscriber
// ranks never open the files themselves. It should not be interacted with
// directly, but it is exported to meet RPC requirements.
type DataServer struct {
	med pylag.Mediator
}

// NewDataServer wraps med for registration with an RPC server.
func NewDataServer(med pylag.Mediator) *DataServer { return &DataServer{med: med} }

// NameArg names a dimension or variable.
type NameArg struct {
	Name string
}

// FieldArg names one time slab of a field variable.
type FieldArg struct {
	Name string
	Tidx int
}

// ArrayReply carries a dense array back to the caller.
type ArrayReply struct {
	Arr *sparse.DenseArray
}

// IntReply carries an integer variable back to the caller.
type IntReply struct {
	Vals []int32
}

// DimReply carries a dimension length.
type DimReply struct {
	N int
}

// TimeReply carries a snapshot bracket.
type TimeReply struct {
	Bracket pylag.TimeBracket
}

// TimeArg carries a simulation time.
type TimeArg struct {
	T float64
}

// Dim meets the requirements for use with rpc.Call.
func (s *DataServer) Dim(arg *NameArg, reply *DimReply) error {
	n, err := s.med.Dim(arg.Name)
	reply.N = n
	return err
}

// GridVariable meets the requirements for use with rpc.Call.
func (s *DataServer) GridVariable(arg *NameArg, reply *ArrayReply) error {
	a, err := s.med.GridVariable(arg.Name)
	reply.Arr = a
	return err
}

// GridIntVariable meets the requirements for use with rpc.Call.
func (s *DataServer) GridIntVariable(arg *NameArg, reply *IntReply) error {
	v, err := s.med.GridIntVariable(arg.Name)
	reply.Vals = v
	return err
}

// FieldAt meets the requirements for use with rpc.Call.
func (s *DataServer) FieldAt(arg *FieldArg, reply *ArrayReply) error {
	a, err := s.med.FieldAt(arg.Name, arg.Tidx)
	reply.Arr = a
	return err
}

// UpdateTimeVars meets the requirements for use with rpc.Call.
func (s *DataServer) UpdateTimeVars(arg *TimeArg, reply *TimeReply) error {
	br, err := s.med.UpdateTimeVars(arg.T)
	reply.Bracket = br
	return err
}

// RPCMediator satisfies pylag.Mediator for a subscriber rank by forwarding
// every request to the file owner's DataServer.
type RPCMediator struct {
	client *rpc.Client
}

// NewRPCMediator dials the file owner's DataServer at addr.
func NewRPCMediator(addr string) (*RPCMediator, error) {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &RPCMediator{client: client}, nil
}

// Dim implements pylag.Mediator.
func (m *RPCMediator) Dim(name string) (int, error) {
	var reply DimReply
	err := m.client.Call("DataServer.Dim", &NameArg{Name: name}, &reply)
	return reply.N, err
}

// rebuild restores a dense array decoded from the wire. Gob only carries
// the exported shape and element fields, so the array is reallocated to
// reinitialize the internal index bookkeeping.
func rebuild(a *sparse.DenseArray) *sparse.DenseArray {
	if a == nil {
		return nil
	}
	b := sparse.ZerosDense(a.Shape...)
	copy(b.Elements, a.Elements)
	return b
}

// GridVariable implements pylag.Mediator.
func (m *RPCMediator) GridVariable(name string) (*sparse.DenseArray, error) {
	var reply ArrayReply
	err := m.client.Call("DataServer.GridVariable", &NameArg{Name: name}, &reply)
	return rebuild(reply.Arr), err
}

// GridIntVariable implements pylag.Mediator.
func (m *RPCMediator) GridIntVariable(name string) ([]int32, error) {
	var reply IntReply
	err := m.client.Call("DataServer.GridIntVariable", &NameArg{Name: name}, &reply)
	return reply.Vals, err
}

// FieldAt implements pylag.Mediator.
func (m *RPCMediator) FieldAt(name string, tidx int) (*sparse.DenseArray, error) {
	var reply ArrayReply
	err := m.client.Call("DataServer.FieldAt", &FieldArg{Name: name, Tidx: tidx}, &reply)
	return rebuild(reply.Arr), err
}

// UpdateTimeVars implements pylag.Mediator.
func (m *RPCMediator) UpdateTimeVars(t float64) (pylag.TimeBracket, error) {
	var reply TimeReply
	err := m.client.Call("DataServer.UpdateTimeVars", &TimeArg{T: t}, &reply)
	return reply.Bracket, err
}

// Close closes the connection to the file owner.
func (m *RPCMediator) Close() error { return m.client.Close() }
