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

package frame

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic frame statistics
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Median float64 `json:"median"`
	Zeros  int     `json:"zeros"` // pixels without data or at the near limit
}

// Calculates statistics over the frame data
func (f *Frame) Stats() Stats {
	if len(f.Pix) == 0 {
		return Stats{}
	}

	xs := make([]float64, len(f.Pix))
	var hist [256]int
	for i, p := range f.Pix {
		xs[i] = float64(p)
		hist[p]++
	}

	s := Stats{
		Min:   floats.Min(xs),
		Max:   floats.Max(xs),
		Zeros: hist[0],
	}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	s.Median = medianFromHistogram(hist[:], len(f.Pix))
	return s
}

// Returns the lower median of n values given as a histogram over [0,255]
func medianFromHistogram(hist []int, n int) float64 {
	target := (n - 1) / 2
	seen := 0
	for v, count := range hist {
		seen += count
		if seen > target {
			return float64(v)
		}
	}
	return 255
}

func (s Stats) String() string {
	return fmt.Sprintf("min %.4g max %.4g mean %.4g stdDev %.4g median %.4g zeros %d",
		s.Min, s.Max, s.Mean, s.StdDev, s.Median, s.Zeros)
}
