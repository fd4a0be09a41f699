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
	"io"
	"runtime"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
)

// An execution context for pipelines
type Context struct {
	Log        io.Writer
	MemoryMB   int    // memory.TotalMemory()/1024/1024
	MaxThreads int    // 1 processes each frame on the calling goroutine only
	CPU        string // processor brand, for log output
}

func NewContext(log io.Writer) *Context {
	threads := cpuid.CPU.LogicalCores
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if max := runtime.GOMAXPROCS(0); threads > max {
		threads = max
	}
	return &Context{
		Log:        log,
		MemoryMB:   int(memory.TotalMemory() / 1024 / 1024),
		MaxThreads: threads,
		CPU:        cpuid.CPU.BrandName,
	}
}

// Context for single threaded use, logging to the given writer
func NewSerialContext(log io.Writer) *Context {
	c := NewContext(log)
	c.MaxThreads = 1
	return c
}

func (c *Context) String() string {
	return fmt.Sprintf("%s, %d threads, %d MiB", c.CPU, c.MaxThreads, c.MemoryMB)
}
