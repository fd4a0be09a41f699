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
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Maps 8 bit intensities to display colors
type ColorMap int

const (
	ColorMapGreen ColorMap = iota // intensity in the green channel, as on the device preview
	ColorMapGray                  // plain grayscale
	ColorMapHCL                   // perceptual gradient from near to far, zero stays black
)

var colorMapNames = []string{"green", "gray", "hcl"}

func (m ColorMap) String() string {
	if m < 0 || int(m) >= len(colorMapNames) {
		return fmt.Sprintf("colorMap(%d)", int(m))
	}
	return colorMapNames[m]
}

// Parses a color map from its string form, case insensitive
func ParseColorMap(s string) (ColorMap, error) {
	for i, name := range colorMapNames {
		if strings.EqualFold(s, name) {
			return ColorMap(i), nil
		}
	}
	return 0, errors.New(fmt.Sprintf("unknown color map '%s'", s))
}

// Gradient end points for ColorMapHCL
const (
	hclNear = "#fde725"
	hclFar  = "#440154"
)

// Lookup tables, one per color map
var colorLUTs [3][256]color.RGBA

func init() {
	near, err := colorful.Hex(hclNear)
	if err != nil {
		panic(err)
	}
	far, err := colorful.Hex(hclFar)
	if err != nil {
		panic(err)
	}

	for i := 0; i < 256; i++ {
		v := uint8(i)
		colorLUTs[ColorMapGreen][i] = color.RGBA{0, v, 0, 255}
		colorLUTs[ColorMapGray][i] = color.RGBA{v, v, v, 255}

		if i == 0 {
			colorLUTs[ColorMapHCL][i] = color.RGBA{0, 0, 0, 255} // no data
			continue
		}
		r, g, b := near.BlendHcl(far, float64(i-1)/254).Clamped().RGB255()
		colorLUTs[ColorMapHCL][i] = color.RGBA{r, g, b, 255}
	}
}

// Returns the color for a given intensity
func (m ColorMap) Color(v uint8) color.RGBA {
	if m < 0 || int(m) >= len(colorLUTs) {
		m = ColorMapGray
	}
	return colorLUTs[m][v]
}

// Converts the frame into an RGBA image using the given color map
func (f *Frame) Colorize(m ColorMap) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		yoffset := y * f.Width
		for x := 0; x < f.Width; x++ {
			img.SetRGBA(x, y, m.Color(f.Pix[yoffset+x]))
		}
	}
	return img
}

// Returns the frame as an image for encoding. Grayscale maps to the
// underlying data without copying, all others are colorized
func (f *Frame) Image(m ColorMap) image.Image {
	if m == ColorMapGray {
		return f.Gray()
	}
	return f.Colorize(m)
}
