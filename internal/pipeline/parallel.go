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

// Bands smaller than this are not worth a goroutine
const minBandRows = 16

// Splits the rows [0,height) into at most maxThreads contiguous bands and applies fn
// to each band concurrently. Returns the sum of the results once all bands are done
func forEachBand(height, maxThreads int, fn func(y0, y1 int) int) int {
	bands := maxThreads
	if most := height / minBandRows; bands > most {
		bands = most
	}
	if bands <= 1 {
		return fn(0, height)
	}

	results := make(chan int, bands)
	for b := 0; b < bands; b++ {
		y0, y1 := b*height/bands, (b+1)*height/bands
		go func() {
			results <- fn(y0, y1)
		}()
	}
	sum := 0
	for b := 0; b < bands; b++ {
		sum += <-results
	}
	return sum
}
