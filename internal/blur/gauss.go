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

import (
	"math"
)

// Number of box blur passes used to approximate a gaussian
const GaussPasses = 3

// Returns the widths of n successive box filters whose combination approximates
// a gaussian blur with standard deviation sigma. All widths are odd.
// See http://blog.ivank.net/fastest-gaussian-blur.html
func BoxesForGauss(sigma float64, n int) []int {
	wIdeal := math.Sqrt(12*sigma*sigma/float64(n) + 1)
	wl := int(math.Floor(wIdeal))
	if wl%2 == 0 {
		wl--
	}
	wu := wl + 2

	fn, fwl := float64(n), float64(wl)
	mIdeal := (12*sigma*sigma - fn*fwl*fwl - 4*fn*fwl - 3*fn) / (-4*fwl - 4)
	m := int(math.Round(mIdeal))

	sizes := make([]int, n)
	for i := range sizes {
		if i < m {
			sizes[i] = wl
		} else {
			sizes[i] = wu
		}
	}
	return sizes
}

// Approximates a gaussian blur with standard deviation sigma on the 2D image
// given by data, width and height, using three box blur passes.
// Overwrites tmp and returns the result in res. Data is left unchanged
func GaussApprox(res, tmp, data []uint8, width, height int, sigma float64) {
	if sigma <= 0 {
		copy(res, data[:width*height])
		return
	}
	boxes := BoxesForGauss(sigma, GaussPasses)
	in := data
	for _, box := range boxes {
		BoxBlur(res, tmp, in, width, height, (box-1)/2)
		in = res
	}
}

// Allocates a new array and returns the gaussian blurred data in it
func NewGaussApprox(data []uint8, width, height int, sigma float64) []uint8 {
	tmp := make([]uint8, len(data))
	res := make([]uint8, len(data))
	GaussApprox(res, tmp, data, width, height, sigma)
	return res
}
