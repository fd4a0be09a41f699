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
	"bufio"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Supported image output formats
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
	FormatTIFF
	FormatBMP
)

// JPEG quality used for file output
const JPEGQuality = 95

// Picks an output format from a file name suffix or a bare format name like "png"
func FormatFromName(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = "." + strings.ToLower(name)
	}
	switch ext {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".bmp":
		return FormatBMP, nil
	}
	return 0, errors.New(fmt.Sprintf("unknown image format for '%s'", name))
}

// Returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatTIFF:
		return "image/tiff"
	case FormatBMP:
		return "image/bmp"
	}
	return "image/png"
}

// Encodes the frame in the given format, mapping intensities with the given color map
func (f *Frame) Encode(writer io.Writer, format Format, m ColorMap) error {
	img := f.Image(m)
	switch format {
	case FormatPNG:
		return png.Encode(writer, img)
	case FormatJPEG:
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: JPEGQuality})
	case FormatTIFF:
		return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		return bmp.Encode(writer, img)
	}
	return errors.New(fmt.Sprintf("unsupported image format %d", int(format)))
}

// Writes the frame to a file, picking the format from the file name suffix
func (f *Frame) WriteFile(fileName string, m ColorMap) error {
	format, err := FormatFromName(fileName)
	if err != nil {
		return err
	}

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := f.Encode(writer, format, m); err != nil {
		return err
	}
	return writer.Flush()
}
