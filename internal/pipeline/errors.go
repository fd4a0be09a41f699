// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pipeline

import (
	"fmt"
)

// Returned when an input buffer does not match the configured frame size.
// Nothing is processed or emitted for such a frame
type PreconditionError struct {
	Got  int // number of samples received
	Want int // width*height
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("frame has %d samples, want %d", e.Got, e.Want)
}

// Returned when a configuration cannot produce a usable pipeline
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}
