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

package source

import (
	"github.com/pbnjay/memory"
)

// A frame or an error from a prefetching source
type Result struct {
	Samples []uint16
	Err     error
}

// Upper bound for frames queued ahead of the pipeline
const maxPrefetch = 64

// Returns how many frames of the given size to queue ahead, using at most
// a hundredth of physical memory
func PrefetchDepth(width, height int) int {
	frameBytes := uint64(2 * width * height)
	if frameBytes == 0 {
		return 1
	}
	depth := memory.TotalMemory() / 100 / frameBytes
	if depth < 1 {
		return 1
	}
	if depth > maxPrefetch {
		return maxPrefetch
	}
	return int(depth)
}

// Reads frames from src on a separate goroutine and queues up to depth of them.
// The channel is closed after the first error, which is delivered as the last result
func Prefetch(src Source, depth int) <-chan Result {
	out := make(chan Result, depth)
	go func() {
		defer close(out)
		for {
			samples, err := src.Next()
			out <- Result{samples, err}
			if err != nil {
				return
			}
		}
	}()
	return out
}
