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

	"github.com/mlnoga/tofview/internal/blur"
	"github.com/mlnoga/tofview/internal/depth"
	"github.com/mlnoga/tofview/internal/frame"
	"github.com/mlnoga/tofview/internal/median"
)

// Turns raw depth frames into four visualizations: the filtered range, a noise reduced
// version, a moving average over time and a blurred moving average.
// Not safe for concurrent use. Callers must deliver frames one at a time
type Pipeline struct {
	cfg     Config
	sink    Sink
	c       *Context
	decoder *depth.Decoder

	raw     []uint8 // decoded current frame
	noise   []uint8 // raw, filtered once
	avg     []uint8 // moving average after the current frame
	avgP2   []uint8 // moving average as of the previous frame
	next    []uint8 // scratch for the new average, recycled from the discarded history
	blurred []uint8 // avg, blurred once
	tmp     []uint8 // scratch for the separable blur passes

	frames       int
	lastRejected int
}

// Creates a pipeline which emits its outputs to the given sink. A nil sink discards them,
// a nil context runs single threaded without logging
func New(cfg Config, sink Sink, c *Context) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = &Context{Log: io.Discard, MaxThreads: 1}
	}
	if c.Log == nil {
		c.Log = io.Discard
	}
	if sink == nil {
		sink = SinkFunc(func(*frame.Frame) error { return nil })
	}

	fmt.Fprintf(c.Log, "Pipeline %s, %d threads\n", cfg.String(), c.MaxThreads)
	size := cfg.Width * cfg.Height
	return &Pipeline{
		cfg:     cfg,
		sink:    sink,
		c:       c,
		decoder: depth.NewDecoder(cfg.ConfidenceThreshold, cfg.RangeMin, cfg.RangeMax),
		raw:     make([]uint8, size),
		noise:   make([]uint8, size),
		avg:     make([]uint8, size),
		avgP2:   make([]uint8, size),
		next:    make([]uint8, size),
		blurred: make([]uint8, size),
		tmp:     make([]uint8, size),
	}, nil
}

// Returns the configuration the pipeline was built with
func (p *Pipeline) Config() Config { return p.cfg }

// Number of frames processed so far
func (p *Pipeline) Frames() int { return p.frames }

// Number of samples in the last frame that failed the confidence threshold
func (p *Pipeline) LastRejected() int { return p.lastRejected }

// Clears the moving average history, e.g. after a gap in the frame stream.
// The next two frames run through the warm-up again
func (p *Pipeline) Reset() {
	fmt.Fprintf(p.c.Log, "%d: Resetting moving average\n", p.frames)
	for i := range p.avg {
		p.avg[i] = 0
		p.avgP2[i] = 0
	}
}

// Processes one frame of width*height row-major DEPTH16 samples and emits the four
// outputs to the sink. A buffer of the wrong size returns a *PreconditionError
// before any state is touched
func (p *Pipeline) ProcessFrame(samples []uint16) error {
	if len(samples) != len(p.raw) {
		return &PreconditionError{Got: len(samples), Want: len(p.raw)}
	}

	p.lastRejected = p.decodeAndAverage(samples)
	p.reduceNoise()

	// shift the history by one frame. The oldest average becomes scratch for the next call
	p.avgP2, p.avg, p.next = p.avg, p.next, p.avgP2

	p.blurAverage()

	id := p.frames
	p.frames++
	w, h := p.cfg.Width, p.cfg.Height
	outs := [...]*frame.Frame{
		frame.New(id, frame.KindRaw, w, h, p.raw),
		frame.New(id, frame.KindNoiseReduced, w, h, p.noise),
		frame.New(id, frame.KindMovingAverage, w, h, p.avg),
		frame.New(id, frame.KindBlurredAverage, w, h, p.blurred),
	}
	for _, f := range outs {
		if err := p.sink.Consume(f); err != nil {
			return fmt.Errorf("%d: emitting %s frame: %w", id, f.Kind, err)
		}
	}
	return nil
}

// Decodes the samples into raw and computes the new moving average into next.
// Rows are independent, so bands of rows run concurrently. Returns the number of rejected samples
func (p *Pipeline) decodeAndAverage(samples []uint16) int {
	w := p.cfg.Width
	return forEachBand(p.cfg.Height, p.c.MaxThreads, func(y0, y1 int) int {
		lo, hi := y0*w, y1*w
		rejected := p.decoder.DecodeInto(p.raw[lo:hi], samples[lo:hi])
		for i := lo; i < hi; i++ {
			p.next[i] = uint8((int(p.raw[i]) + int(p.avg[i]) + int(p.avgP2[i])) / 3)
		}
		return rejected
	})
}

func (p *Pipeline) reduceNoise() {
	w, h := p.cfg.Width, p.cfg.Height
	if p.cfg.NoiseReduceFilter == FilterMedian {
		median.MedianFilter3x3(p.noise, p.raw, w, h)
		return
	}
	blur.BoxBlur(p.noise, p.tmp, p.raw, w, h, p.cfg.NoiseReduceRadius)
}

func (p *Pipeline) blurAverage() {
	w, h := p.cfg.Width, p.cfg.Height
	if p.cfg.AverageBlur == BlurGauss {
		blur.GaussApprox(p.blurred, p.tmp, p.avg, w, h, float64(p.cfg.AverageBlurRadius))
		return
	}
	blur.BoxBlur(p.blurred, p.tmp, p.avg, w, h, p.cfg.AverageBlurRadius)
}
