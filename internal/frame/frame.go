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
	"errors"
	"fmt"
	"image"
	"strings"
)

// Identifies which of the four pipeline outputs a frame holds
type Kind int

const (
	KindRaw            Kind = iota // confidence filtered, normalized range
	KindNoiseReduced               // raw, blurred once
	KindMovingAverage              // average over the raw frame and the two previous averages
	KindBlurredAverage             // moving average, blurred once
)

// All kinds in emission order
var Kinds = []Kind{KindRaw, KindNoiseReduced, KindMovingAverage, KindBlurredAverage}

var kindNames = []string{"raw", "noise", "average", "blurred"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Parses a kind from its string form, case insensitive
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return 0, errors.New(fmt.Sprintf("unknown frame kind '%s'", s))
}

// A single channel 8 bit intensity frame, stored row-major
type Frame struct {
	ID     int     // Sequential frame number, counted upwards from 0. For log output and file names
	Kind   Kind    // Which pipeline output this is
	Width  int     // Width in pixels
	Height int     // Height in pixels
	Pix    []uint8 // Intensities in [0,255], Width*Height entries
}

// Creates a frame of given size. Data is not copied, allocated if nil
func New(id int, kind Kind, width, height int, pix []uint8) *Frame {
	if pix == nil {
		pix = make([]uint8, width*height)
	}
	return &Frame{ID: id, Kind: kind, Width: width, Height: height, Pix: pix}
}

// Returns a deep copy of the frame
func (f *Frame) Clone() *Frame {
	return New(f.ID, f.Kind, f.Width, f.Height, append([]uint8(nil), f.Pix...))
}

// Returns the intensity at given coordinates
func (f *Frame) At(x, y int) uint8 {
	return f.Pix[y*f.Width+x]
}

func (f *Frame) DimensionsToString() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// Wraps the frame data as a grayscale image. Shares the pixel data
func (f *Frame) Gray() *image.Gray {
	return &image.Gray{
		Pix:    f.Pix,
		Stride: f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}
