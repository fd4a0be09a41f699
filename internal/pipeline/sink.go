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
	"github.com/mlnoga/tofview/internal/frame"
)

// Receives the four outputs of each processed frame, in the order raw, noise reduced,
// moving average and blurred moving average. Frames are owned by the pipeline and
// only valid during the call; sinks must Clone() what they keep
type Sink interface {
	Consume(f *frame.Frame) error
}

// Adapts a function to the Sink interface
type SinkFunc func(f *frame.Frame) error

func (fn SinkFunc) Consume(f *frame.Frame) error { return fn(f) }

// A sink with one optional callback per output kind. Nil callbacks are skipped
type VisualizerFuncs struct {
	RawDataAvailable              func(f *frame.Frame) error
	NoiseReductionAvailable       func(f *frame.Frame) error
	MovingAverageAvailable        func(f *frame.Frame) error
	BlurredMovingAverageAvailable func(f *frame.Frame) error
}

func (v *VisualizerFuncs) Consume(f *frame.Frame) error {
	var fn func(f *frame.Frame) error
	switch f.Kind {
	case frame.KindRaw:
		fn = v.RawDataAvailable
	case frame.KindNoiseReduced:
		fn = v.NoiseReductionAvailable
	case frame.KindMovingAverage:
		fn = v.MovingAverageAvailable
	case frame.KindBlurredAverage:
		fn = v.BlurredMovingAverageAvailable
	}
	if fn == nil {
		return nil
	}
	return fn(f)
}

// Passes each frame to all sinks in order, stopping at the first error
type MultiSink []Sink

func (m MultiSink) Consume(f *frame.Frame) error {
	for _, s := range m {
		if err := s.Consume(f); err != nil {
			return err
		}
	}
	return nil
}
