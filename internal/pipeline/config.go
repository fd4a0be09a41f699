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

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mlnoga/tofview/internal/depth"
)

// Filters available for the noise reduced output
const (
	FilterBox    = "box"
	FilterMedian = "median"
)

// Blurs available for the blurred moving average output
const (
	BlurBox   = "box"
	BlurGauss = "gauss"
)

// Pipeline settings, fixed at construction
type Config struct {
	Width               int     `json:"width"`
	Height              int     `json:"height"`
	ConfidenceThreshold float32 `json:"confidenceThreshold"`
	RangeMin            float32 `json:"rangeMin"`
	RangeMax            float32 `json:"rangeMax"`
	NoiseReduceRadius   int     `json:"noiseReduceRadius"`
	AverageBlurRadius   int     `json:"averageBlurRadius"` // radius for box, sigma for gauss
	NoiseReduceFilter   string  `json:"noiseReduceFilter"`
	AverageBlur         string  `json:"averageBlur"`
}

func DefaultConfig() Config {
	return Config{
		Width:               240,
		Height:              180,
		ConfidenceThreshold: depth.DefaultConfidenceThreshold,
		RangeMin:            depth.DefaultRangeMin,
		RangeMax:            depth.DefaultRangeMax,
		NoiseReduceRadius:   1,
		AverageBlurRadius:   1,
		NoiseReduceFilter:   FilterBox,
		AverageBlur:         BlurBox,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (c *Config) UnmarshalJSON(data []byte) error {
	type defaults Config
	def := defaults(DefaultConfig())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*c = Config(def)
	return nil
}

// Loads a configuration from a JSON file. Missing entries keep their defaults
func LoadConfig(fileName string) (Config, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", fileName, err)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", fileName, err)
	}
	return c, nil
}

// Checks that the configuration can produce a usable pipeline
func (c *Config) Validate() error {
	if c.Width <= 0 {
		return &ConfigurationError{"width", fmt.Sprintf("must be positive, got %d", c.Width)}
	}
	if c.Height <= 0 {
		return &ConfigurationError{"height", fmt.Sprintf("must be positive, got %d", c.Height)}
	}
	if c.NoiseReduceRadius <= 0 {
		return &ConfigurationError{"noiseReduceRadius", fmt.Sprintf("must be positive, got %d", c.NoiseReduceRadius)}
	}
	if c.AverageBlurRadius <= 0 {
		return &ConfigurationError{"averageBlurRadius", fmt.Sprintf("must be positive, got %d", c.AverageBlurRadius)}
	}
	if !(c.RangeMax > c.RangeMin) {
		return &ConfigurationError{"rangeMax", fmt.Sprintf("must exceed rangeMin %g, got %g", c.RangeMin, c.RangeMax)}
	}
	if !(c.ConfidenceThreshold >= 0 && c.ConfidenceThreshold < 1) {
		return &ConfigurationError{"confidenceThreshold", fmt.Sprintf("must be in [0,1), got %g", c.ConfidenceThreshold)}
	}
	if c.NoiseReduceFilter != FilterBox && c.NoiseReduceFilter != FilterMedian {
		return &ConfigurationError{"noiseReduceFilter", fmt.Sprintf("must be %s or %s, got '%s'", FilterBox, FilterMedian, c.NoiseReduceFilter)}
	}
	if c.AverageBlur != BlurBox && c.AverageBlur != BlurGauss {
		return &ConfigurationError{"averageBlur", fmt.Sprintf("must be %s or %s, got '%s'", BlurBox, BlurGauss, c.AverageBlur)}
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("%dx%d conf>%g range [%g,%g] noise %s r=%d average blur %s r=%d",
		c.Width, c.Height, c.ConfidenceThreshold, c.RangeMin, c.RangeMax,
		c.NoiseReduceFilter, c.NoiseReduceRadius, c.AverageBlur, c.AverageBlurRadius)
}
