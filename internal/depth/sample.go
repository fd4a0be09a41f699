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

package depth

import (
	"math"
)

// Default decoder settings, matching the time-of-flight sensors this was built for
const (
	DefaultConfidenceThreshold = float32(0.1)
	DefaultRangeMin            = float32(200.0)
	DefaultRangeMax            = float32(1600.0)
)

// A packed DEPTH16 sample. Bits 0-12 hold the range, bits 13-15 the confidence
type Sample uint16

// Returns the 13 bit range field
func (s Sample) Range() uint16 { return uint16(s) & 0x1FFF }

// Returns the 3 bit confidence field, in [0,7]
func (s Sample) Confidence() uint8 { return uint8((uint16(s) >> 13) & 0x7) }

// Packs a range and a confidence into a sample. Excess bits are masked off
func NewSample(rng uint16, confidence uint8) Sample {
	return Sample((uint16(confidence&0x7) << 13) | (rng & 0x1FFF))
}

// Maps the 3 bit confidence field to a fraction. Zero means the sensor did
// not report a confidence, and is treated as fully confident
func ConfidenceFraction(confidence uint8) float32 {
	if confidence == 0 {
		return 1
	}
	return float32(confidence-1) / 7
}

// Why a sample decoded to the value it did
type Status int

const (
	StatusValid      Status = iota // confident and within [RangeMin, RangeMax]
	StatusBelowRange               // confident, clamped to RangeMin
	StatusAboveRange               // confident, clamped to RangeMax
	StatusRejected                 // confidence at or below threshold, value forced to 0
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusBelowRange:
		return "belowRange"
	case StatusAboveRange:
		return "aboveRange"
	case StatusRejected:
		return "rejected"
	}
	return "unknown"
}

// Decodes samples into 8 bit intensities
type Decoder struct {
	ConfidenceThreshold float32
	RangeMin            float32
	RangeMax            float32
}

func NewDecoderDefault() *Decoder {
	return NewDecoder(DefaultConfidenceThreshold, DefaultRangeMin, DefaultRangeMax)
}

// Creates a decoder. The caller ensures rangeMax>rangeMin
func NewDecoder(confidenceThreshold, rangeMin, rangeMax float32) *Decoder {
	return &Decoder{
		ConfidenceThreshold: confidenceThreshold,
		RangeMin:            rangeMin,
		RangeMax:            rangeMax,
	}
}

// Decodes a sample into an intensity in [0,255]. Rejected samples yield 0,
// same as samples at or below RangeMin
func (d *Decoder) Decode(s Sample) uint8 {
	v, _ := d.Inspect(s)
	return v
}

// Decodes a sample and reports the path taken
func (d *Decoder) Inspect(s Sample) (v uint8, status Status) {
	if ConfidenceFraction(s.Confidence()) <= d.ConfidenceThreshold {
		return 0, StatusRejected
	}

	r := float32(s.Range())
	status = StatusValid
	if r < d.RangeMin {
		r, status = d.RangeMin, StatusBelowRange
	} else if r > d.RangeMax {
		r, status = d.RangeMax, StatusAboveRange
	}

	n := float64(r-d.RangeMin) / float64(d.RangeMax-d.RangeMin) * 255
	n = math.Floor(n + 0.5) // round half up
	if n < 0 {
		n = 0
	} else if n > 255 {
		n = 255
	}
	return uint8(n), status
}

// Decodes a full buffer of samples into dest, returning the number of rejected samples.
// Both slices must have the same length
func (d *Decoder) DecodeInto(dest []uint8, samples []uint16) (rejected int) {
	for i, raw := range samples {
		v, status := d.Inspect(Sample(raw))
		if status == StatusRejected {
			rejected++
		}
		dest[i] = v
	}
	return rejected
}
