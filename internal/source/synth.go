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
	"io"

	"github.com/mlnoga/tofview/internal/depth"
	"github.com/valyala/fastrand"
)

// Generates a synthetic scene: a floor plane receding from bottom to top, and a disc
// moving left to right in front of it. Adds uniform range noise and random
// low-confidence dropouts
type Synth struct {
	Width           int
	Height          int
	Frames          int    // number of frames to produce, 0 for unlimited
	Noise           uint32 // peak-to-peak range noise, in sensor units
	DropoutPermille uint32 // probability of a low-confidence sample, per thousand
	rng             fastrand.RNG
	frame           int
}

func NewSynth(width, height, frames int, seed uint32) *Synth {
	s := &Synth{
		Width:           width,
		Height:          height,
		Frames:          frames,
		Noise:           40,
		DropoutPermille: 20,
	}
	s.rng.Seed(seed)
	return s
}

func (s *Synth) Next() ([]uint16, error) {
	if s.Frames > 0 && s.frame >= s.Frames {
		return nil, io.EOF
	}

	w, h := s.Width, s.Height
	radius := h / 4
	cx := (s.frame*4)%(w+2*radius) - radius
	cy := h / 2

	samples := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		floor := 1500 - 1100*y/h // far at the top, near at the bottom
		for x := 0; x < w; x++ {
			r := floor
			if dx, dy := x-cx, y-cy; dx*dx+dy*dy <= radius*radius {
				r = 450
			}
			if s.Noise > 0 {
				r += int(s.rng.Uint32n(s.Noise+1)) - int(s.Noise/2)
			}
			if r < 0 {
				r = 0
			}

			confidence := uint8(2 + s.rng.Uint32n(6)) // 2..7, all above the default threshold
			if s.rng.Uint32n(1000) < s.DropoutPermille {
				confidence = 1
			}
			samples[y*w+x] = uint16(depth.NewSample(uint16(r), confidence))
		}
	}
	s.frame++
	return samples, nil
}
