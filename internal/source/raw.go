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
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Supplies raw DEPTH16 frames of width*height samples, one per call.
// Returns io.EOF once no more frames are available
type Source interface {
	Next() ([]uint16, error)
}

// Reads concatenated headerless frames of little-endian 16 bit samples
type RawReader struct {
	r      io.Reader
	width  int
	height int
	buf    []byte
}

func NewRawReader(r io.Reader, width, height int) *RawReader {
	return &RawReader{
		r:      bufio.NewReader(r),
		width:  width,
		height: height,
		buf:    make([]byte, 2*width*height),
	}
}

// Returns the next frame. A trailing partial frame yields io.ErrUnexpectedEOF
func (rr *RawReader) Next() ([]uint16, error) {
	if _, err := io.ReadFull(rr.r, rr.buf); err != nil {
		return nil, err
	}
	samples := make([]uint16, rr.width*rr.height)
	for i := range samples {
		samples[i] = binary.LittleEndian.Uint16(rr.buf[2*i:])
	}
	return samples, nil
}

// Reads frames from a sequence of files, in order
type FileSource struct {
	fileNames []string
	width     int
	height    int
	file      *os.File
	reader    *RawReader
	log       io.Writer
}

func NewFileSource(fileNames []string, width, height int, log io.Writer) *FileSource {
	return &FileSource{fileNames: fileNames, width: width, height: height, log: log}
}

func (fs *FileSource) Next() ([]uint16, error) {
	for {
		if fs.reader == nil {
			if len(fs.fileNames) == 0 {
				return nil, io.EOF
			}
			fileName := fs.fileNames[0]
			fs.fileNames = fs.fileNames[1:]
			file, err := os.Open(fileName)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(fs.log, "Reading %dx%d frames from %s\n", fs.width, fs.height, fileName)
			fs.file, fs.reader = file, NewRawReader(file, fs.width, fs.height)
		}

		samples, err := fs.reader.Next()
		if err == io.EOF {
			fs.Close()
			continue
		}
		if err != nil {
			fileName := fs.file.Name()
			fs.Close()
			return nil, fmt.Errorf("%s: %w", fileName, err)
		}
		return samples, nil
	}
}

// Closes the current file, if any
func (fs *FileSource) Close() error {
	if fs.file == nil {
		return nil
	}
	err := fs.file.Close()
	fs.file, fs.reader = nil, nil
	return err
}

// Writes one frame as little-endian 16 bit samples
func WriteRaw(w io.Writer, samples []uint16) error {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], s)
	}
	_, err := w.Write(buf)
	return err
}

// Expands filename patterns with wildcards into file names, in order.
// Paths outside the current directory tree are skipped
func Glob(patterns []string, log io.Writer) (fileNames []string, err error) {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if !isPathAllowed(match) {
				fmt.Fprintf(log, "Pattern match %s outside current directory tree, skipping\n", match)
				continue
			}
			fileNames = append(fileNames, match)
		}
	}
	if len(fileNames) == 0 {
		return nil, errors.New(fmt.Sprintf("no files to load from pattern %v", patterns))
	}
	return fileNames, nil
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false
	}
	if strings.Contains(p, "..") {
		return false
	}
	return true
}
