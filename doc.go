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

// Package pylag is an offline Lagrangian particle-tracking model. It
// advects and diffuses particles through velocity fields saved by ocean
// circulation models (FVCOM, ROMS, regular-grid and water-column output),
// resolving land boundaries by reflection and recording trajectories to
// NetCDF.
package pylag

// Version gives the model version.
const Version = "0.6.0"
