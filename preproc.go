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
	"os"

	"github.com/ctessum/cdf"
	log "github.com/sirupsen/logrus"
)

// BuildGridMetrics derives a grid metrics file from raw unstructured-mesh
// circulation model output. The raw element adjacency table is rewritten so
// that slot i names the neighbor across the edge between nodes (i+2)%3 and
// i of the element's node list, and the velocity-gradient coefficient
// columns are permuted to track their neighbors. Raw node indices are
// 1-based and are shifted to 0-based.
func BuildGridMetrics(rawPath, outPath string) error {
	raw, err := OpenFieldFile(rawPath)
	if err != nil {
		return err
	}
	defer raw.Close()

	nNodes, err := raw.Dim("node")
	if err != nil {
		return err
	}
	nElems, err := raw.Dim("nele")
	if err != nil {
		return err
	}

	fvars := make(map[string][]float32)
	for _, name := range []string{"x", "y", "xc", "yc", "h", "siglay", "siglev"} {
		a, err := raw.Variable(name)
		if err != nil {
			return err
		}
		v := make([]float32, len(a.Elements))
		for i, x := range a.Elements {
			v[i] = float32(x)
		}
		fvars[name] = v
	}

	nvRaw, err := raw.IntVariable("nv")
	if err != nil {
		return err
	}
	nbeRaw, err := raw.IntVariable("nbe")
	if err != nil {
		return err
	}
	a1uRaw, err := raw.Variable("a1u")
	if err != nil {
		return err
	}
	a2uRaw, err := raw.Variable("a2u")
	if err != nil {
		return err
	}

	// Shift node indices to 0-based.
	nv := make([]int32, len(nvRaw))
	for i, n := range nvRaw {
		nv[i] = n - 1
	}

	nbe, err := canonicalAdjacency(nv, nNodes, nElems)
	if err != nil {
		return err
	}
	a1u := permuteInterpolants(a1uRaw.Elements, nbeRaw, nbe, nElems)
	a2u := permuteInterpolants(a2uRaw.Elements, nbeRaw, nbe, nElems)

	nSigLay := len(fvars["siglay"])
	nSigLev := len(fvars["siglev"])

	h := cdf.NewHeader(
		[]string{"node", "nele", "three", "four", "siglay", "siglev"},
		[]int{nNodes, nElems, 3, 4, nSigLay, nSigLev})
	for _, name := range []string{"x", "y", "h"} {
		h.AddVariable(name, []string{"node"}, []float32{0})
	}
	for _, name := range []string{"xc", "yc"} {
		h.AddVariable(name, []string{"nele"}, []float32{0})
	}
	h.AddVariable("nv", []string{"three", "nele"}, []int32{0})
	h.AddAttribute("nv", "long_name", "nodes surrounding element, zero based")
	h.AddVariable("nbe", []string{"three", "nele"}, []int32{0})
	h.AddAttribute("nbe", "long_name", "elements surrounding each element, canonical edge order")
	h.AddVariable("a1u", []string{"four", "nele"}, []float32{0})
	h.AddVariable("a2u", []string{"four", "nele"}, []float32{0})
	h.AddVariable("siglay", []string{"siglay"}, []float32{0})
	h.AddVariable("siglev", []string{"siglev"}, []float32{0})
	h.Define()

	ff, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("pylag: creating grid metrics file: %v", err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return fmt.Errorf("pylag: creating grid metrics file %s: %v", outPath, err)
	}
	write := func(name string, data interface{}) {
		if err != nil {
			return
		}
		end := f.Header.Lengths(name)
		_, err = f.Writer(name, make([]int, len(end)), end).Write(data)
	}
	err = nil
	for _, name := range []string{"x", "y", "xc", "yc", "h", "siglay", "siglev"} {
		write(name, fvars[name])
	}
	write("nv", nv)
	write("nbe", nbe)
	write("a1u", a1u)
	write("a2u", a2u)
	if err != nil {
		ff.Close()
		return fmt.Errorf("pylag: writing grid metrics: %v", err)
	}
	log.WithFields(log.Fields{
		"nodes":    nNodes,
		"elements": nElems,
		"file":     outPath,
	}).Info("grid metrics written")
	return ff.Close()
}

// canonicalAdjacency rebuilds the element adjacency table from the node
// lists, in the canonical edge order. Both tables are stored (three, nele)
// row-major.
func canonicalAdjacency(nv []int32, nNodes, nElems int) ([]int32, error) {
	type edge struct{ a, b int32 }
	ordered := func(a, b int32) edge {
		if a > b {
			a, b = b, a
		}
		return edge{a, b}
	}
	elems := make(map[edge][]int32, 3*nElems/2)
	for e := 0; e < nElems; e++ {
		for i := 0; i < 3; i++ {
			n1 := nv[((i+2)%3)*nElems+e]
			n2 := nv[i*nElems+e]
			if n1 < 0 || n2 < 0 || int(n1) >= nNodes || int(n2) >= nNodes {
				return nil, fmt.Errorf("pylag: element %d references node out of range", e)
			}
			k := ordered(n1, n2)
			elems[k] = append(elems[k], int32(e))
		}
	}
	nbe := make([]int32, 3*nElems)
	for e := 0; e < nElems; e++ {
		for i := 0; i < 3; i++ {
			n1 := nv[((i+2)%3)*nElems+e]
			n2 := nv[i*nElems+e]
			nbe[i*nElems+e] = HostNotFound
			for _, q := range elems[ordered(n1, n2)] {
				if q == int32(e) {
					continue
				}
				if nbe[i*nElems+e] != HostNotFound {
					return nil, fmt.Errorf("pylag: edge (%d, %d) is shared by more than two elements", n1, n2)
				}
				nbe[i*nElems+e] = q
			}
		}
	}
	return nbe, nil
}

// permuteInterpolants reorders the neighbor columns of a gradient
// coefficient table from the raw adjacency order to the canonical one.
// Column 0, the element's own coefficient, stays in place; a column whose
// canonical neighbor is missing from the raw table is zeroed.
func permuteInterpolants(raw []float64, nbeRaw, nbe []int32, nElems int) []float32 {
	out := make([]float32, 4*nElems)
	for e := 0; e < nElems; e++ {
		out[e] = float32(raw[e]) // slot 0
		for i := 0; i < 3; i++ {
			q := nbe[i*nElems+e]
			if q == HostNotFound {
				continue
			}
			for j := 0; j < 3; j++ {
				// Raw adjacency entries are 1-based, 0 meaning no
				// neighbor.
				if nbeRaw[j*nElems+e]-1 == q {
					out[(i+1)*nElems+e] = float32(raw[(j+1)*nElems+e])
					break
				}
			}
		}
	}
	return out
}
