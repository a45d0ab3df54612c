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

// Package cluster distributes a particle-tracking run across a group of
// rank-numbered processes. Rank 0 owns all raw file access and the output;
// the other ranks obtain field data through RPC and integrate their own
// particle shard.
package cluster

import "fmt"

// Empty is used for passing content-less messages.
type Empty struct{}

// Role describes a process's relationship to the raw field files,
// resolved once at startup from its rank.
type Role int

const (
	// FileOwner is the single rank that opens the grid and field files,
	// partitions the particles, drives the stepping loop and writes
	// output.
	FileOwner Role = iota
	// Subscriber ranks never open files. They receive field data through
	// the file owner and report particle state back on record steps.
	Subscriber
)

func (r Role) String() string {
	if r == FileOwner {
		return "FileOwner"
	}
	return "Subscriber"
}

// RoleOf returns the role of the given rank.
func RoleOf(rank int) Role {
	if rank == 0 {
		return FileOwner
	}
	return Subscriber
}

// Partition splits n particles into nranks contiguous shards. The split
// depends only on n and nranks, so a rerun with the same inputs assigns
// every particle to the same rank. The returned slice holds [start, end)
// index pairs, one per rank; low ranks absorb the remainder.
func Partition(n, nranks int) ([][2]int, error) {
	if nranks < 1 {
		return nil, fmt.Errorf("cluster: need at least one rank, got %d", nranks)
	}
	shards := make([][2]int, nranks)
	base := n / nranks
	rem := n % nranks
	start := 0
	for r := 0; r < nranks; r++ {
		size := base
		if r < rem {
			size++
		}
		shards[r] = [2]int{start, start + size}
		start += size
	}
	return shards, nil
}
