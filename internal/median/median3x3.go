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

package median

// Applies a 3x3 median filter to the 2D image given by data, width and height,
// and stores the results in output. Pixels outside the image replicate the nearest edge pixel
func MedianFilter3x3(output, data []uint8, width, height int) {
	var gathered [9]uint8
	for y := 0; y < height; y++ {
		up, down := y-1, y+1
		if up < 0 {
			up = 0
		}
		if down >= height {
			down = height - 1
		}
		rows := [3][]uint8{
			data[up*width : (up+1)*width],
			data[y*width : (y+1)*width],
			data[down*width : (down+1)*width],
		}
		for x := 0; x < width; x++ {
			left, right := x-1, x+1
			if left < 0 {
				left = 0
			}
			if right >= width {
				right = width - 1
			}
			j := 0
			for _, row := range rows {
				gathered[j], gathered[j+1], gathered[j+2] = row[left], row[x], row[right]
				j += 3
			}
			output[y*width+x] = MedianUint8Slice9(gathered[:])
		}
	}
}

// Allocates a new array and returns the median filtered data in it
func NewMedianFiltered3x3(data []uint8, width, height int) []uint8 {
	res := make([]uint8, len(data))
	MedianFilter3x3(res, data, width, height)
	return res
}

// Calculates the median of a uint8 slice of length nine.
// Modifies the elements in place
// From https://stackoverflow.com/questions/45453537/optimal-9-element-sorting-network-that-reduces-to-an-optimal-median-of-9-network
func MedianUint8Slice9(a []uint8) uint8 {
	if a[0] > a[1] { a[0], a[1] = a[1], a[0] }
	if a[3] > a[4] { a[3], a[4] = a[4], a[3] }
	if a[6] > a[7] { a[6], a[7] = a[7], a[6] }
	if a[1] > a[2] { a[1], a[2] = a[2], a[1] }
	if a[4] > a[5] { a[4], a[5] = a[5], a[4] }
	if a[7] > a[8] { a[7], a[8] = a[8], a[7] }
	if a[0] > a[1] { a[0], a[1] = a[1], a[0] }
	if a[3] > a[4] { a[3], a[4] = a[4], a[3] }
	if a[6] > a[7] { a[6], a[7] = a[7], a[6] }
	if a[0] > a[3] { a[3] = a[0] }             // max(0,3)
	if a[3] > a[6] { a[6] = a[3] }             // max(3,6)
	if a[1] > a[4] { a[1], a[4] = a[4], a[1] } // swap(1,4)
	if a[4] > a[7] { a[4] = a[7] }             // min(4,7)
	if a[1] > a[4] { a[4] = a[1] }             // max(1,4)
	if a[5] > a[8] { a[5] = a[8] }             // min(5,8)
	if a[2] > a[5] { a[2] = a[5] }             // min(2,5)
	if a[2] > a[4] { a[2], a[4] = a[4], a[2] } // swap(2,4)
	if a[4] > a[6] { a[4] = a[6] }             // min(4,6)
	if a[2] > a[4] { a[4] = a[2] }             // max(2,4)
	return a[4]
}
