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

package blur

// Applies a single separable box blur pass of given radius to the 2D image given by data,
// width and height. Blurs horizontally into tmp, then vertically into res.
// Edge pixels are replicated, so the output has the same size as the input
func BoxBlur(res, tmp, data []uint8, width, height, radius int) {
	BoxBlurHorizontal(tmp, data, width, height, radius)
	BoxBlurVertical(res, tmp, width, height, radius)
}

// Allocates a new array and returns the box blurred data in it
func NewBoxBlurred(data []uint8, width, height, radius int) []uint8 {
	tmp := make([]uint8, len(data))
	res := make([]uint8, len(data))
	BoxBlur(res, tmp, data, width, height, radius)
	return res
}

// Box blurs each row of data with the given radius and stores the result in res.
// Uses a running sum, so cost does not depend on the radius
func BoxBlurHorizontal(res, data []uint8, width, height, radius int) {
	if radius <= 0 {
		copy(res, data[:width*height])
		return
	}
	div := 2*radius + 1
	for y := 0; y < height; y++ {
		row := data[y*width : (y+1)*width]
		out := res[y*width : (y+1)*width]
		blurLine(out, row, width, 1, radius, div)
	}
}

// Box blurs each column of data with the given radius and stores the result in res.
// Uses a running sum, so cost does not depend on the radius
func BoxBlurVertical(res, data []uint8, width, height, radius int) {
	if radius <= 0 {
		copy(res, data[:width*height])
		return
	}
	div := 2*radius + 1
	for x := 0; x < width; x++ {
		blurLine(res[x:], data[x:], height, width, radius, div)
	}
}

// Blurs one line of n pixels spaced stride apart. Pixels before the start read
// as the first pixel and pixels past the end read as the last one
func blurLine(out, in []uint8, n, stride, radius, div int) {
	first, last := int(in[0]), int(in[(n-1)*stride])
	at := func(i int) int {
		if i < 0 {
			return first
		}
		if i >= n {
			return last
		}
		return int(in[i*stride])
	}

	// prime the window as if radius+1 copies of the first pixel preceded the line
	sum := (radius + 1) * first
	for j := 0; j < radius; j++ {
		sum += at(j)
	}
	for i := 0; i < n; i++ {
		sum += at(i+radius) - at(i-radius-1)
		out[i*stride] = round(sum, div)
	}
}

// Rounds sum/div to the nearest integer, halves away from zero. The divisor is
// always odd, so the quotient is never exactly halfway
func round(sum, div int) uint8 {
	return uint8((sum + div/2) / div)
}
