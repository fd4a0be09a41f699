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

package sink

import (
	"fmt"
	"io"
	"sync"

	"github.com/mlnoga/tofview/internal/frame"
)

// Writes frames to image files. Patterns are indexed by frame kind and contain
// a %d placeholder for the frame ID, e.g. "out/raw%05d.png". The image format
// follows the file suffix. Kinds with an empty pattern are skipped
type FileSink struct {
	Patterns [4]string
	ColorMap frame.ColorMap
	Log      io.Writer
}

func NewFileSink(patterns [4]string, m frame.ColorMap, log io.Writer) *FileSink {
	return &FileSink{Patterns: patterns, ColorMap: m, Log: log}
}

func (s *FileSink) Consume(f *frame.Frame) error {
	if int(f.Kind) >= len(s.Patterns) || s.Patterns[f.Kind] == "" {
		return nil
	}
	fileName := fmt.Sprintf(s.Patterns[f.Kind], f.ID)
	if s.Log != nil {
		fmt.Fprintf(s.Log, "%d: Writing %s %s frame to %s\n", f.ID, f.DimensionsToString(), f.Kind, fileName)
	}
	return f.WriteFile(fileName, s.ColorMap)
}

// Logs statistics for the frame kinds selected in Kinds
type StatsSink struct {
	Kinds [4]bool
	Log   io.Writer
}

// Creates a stats sink logging all kinds
func NewStatsSink(log io.Writer) *StatsSink {
	return &StatsSink{Kinds: [4]bool{true, true, true, true}, Log: log}
}

func (s *StatsSink) Consume(f *frame.Frame) error {
	if int(f.Kind) >= len(s.Kinds) || !s.Kinds[f.Kind] {
		return nil
	}
	fmt.Fprintf(s.Log, "%d: %-7s %s\n", f.ID, f.Kind, f.Stats())
	return nil
}

// Keeps a copy of the most recent frame of each kind, for concurrent readers
type LatestSink struct {
	mutex  sync.RWMutex
	frames [4]*frame.Frame
}

func NewLatestSink() *LatestSink {
	return &LatestSink{}
}

func (s *LatestSink) Consume(f *frame.Frame) error {
	if int(f.Kind) >= len(s.frames) {
		return nil
	}
	c := f.Clone()
	s.mutex.Lock()
	s.frames[f.Kind] = c
	s.mutex.Unlock()
	return nil
}

// Returns the latest frame of the given kind, or nil if none was seen yet.
// The frame is shared and must not be modified
func (s *LatestSink) Get(k frame.Kind) *frame.Frame {
	if k < 0 || int(k) >= len(s.frames) {
		return nil
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.frames[k]
}
