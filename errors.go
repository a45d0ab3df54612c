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

import "fmt"

// DataUnavailableError indicates that a grid or field variable required by
// the simulation could not be read. It is fatal to the run: continuing with
// a partial field would desynchronize the workers' views of the flow, so
// callers must propagate it to a collective abort rather than retrying.
type DataUnavailableError struct {
	Variable string
	Err      error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("pylag: data unavailable for %q: %v", e.Variable, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// dataUnavailable wraps err as a *DataUnavailableError for variable v.
func dataUnavailable(v string, err error) error {
	return &DataUnavailableError{Variable: v, Err: err}
}
