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
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mlnoga/tofview/internal/depth"
	"github.com/mlnoga/tofview/internal/frame"
)

// Collects cloned copies of everything emitted
type recorder struct {
	frames []*frame.Frame
}

func (r *recorder) Consume(f *frame.Frame) error {
	r.frames = append(r.frames, f.Clone())
	return nil
}

func smallConfig(width, height int) Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = width, height
	return cfg
}

func uniformSamples(n int, s depth.Sample) []uint16 {
	samples := make([]uint16, n)
	for i := range samples {
		samples[i] = uint16(s)
	}
	return samples
}

type configErrorTestCase struct {
	Field string
	Edit  func(c *Config)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tcs := []configErrorTestCase{
		{"width", func(c *Config) { c.Width = 0 }},
		{"height", func(c *Config) { c.Height = -3 }},
		{"noiseReduceRadius", func(c *Config) { c.NoiseReduceRadius = 0 }},
		{"averageBlurRadius", func(c *Config) { c.AverageBlurRadius = -1 }},
		{"rangeMax", func(c *Config) { c.RangeMax = c.RangeMin }},
		{"confidenceThreshold", func(c *Config) { c.ConfidenceThreshold = 1 }},
		{"noiseReduceFilter", func(c *Config) { c.NoiseReduceFilter = "bilateral" }},
		{"averageBlur", func(c *Config) { c.AverageBlur = "" }},
	}
	for _, tc := range tcs {
		cfg := DefaultConfig()
		tc.Edit(&cfg)
		p, err := New(cfg, nil, nil)
		if p != nil {
			t.Errorf("field=%s pipeline=%v; want nil", tc.Field, p)
		}
		var confErr *ConfigurationError
		if !errors.As(err, &confErr) {
			t.Errorf("field=%s err=%v; want *ConfigurationError", tc.Field, err)
			continue
		}
		if confErr.Field != tc.Field {
			t.Errorf("field=%s got field %s", tc.Field, confErr.Field)
		}
	}
}

func TestProcessFrameRejectsWrongSize(t *testing.T) {
	rec := &recorder{}
	p, err := New(smallConfig(4, 3), rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 11, 13} {
		err := p.ProcessFrame(make([]uint16, n))
		var preErr *PreconditionError
		if !errors.As(err, &preErr) {
			t.Fatalf("n=%d err=%v; want *PreconditionError", n, err)
		}
		if preErr.Got != n || preErr.Want != 12 {
			t.Errorf("n=%d got=%d want=%d", n, preErr.Got, preErr.Want)
		}
	}
	if len(rec.frames) != 0 {
		t.Errorf("emitted %d frames; want 0", len(rec.frames))
	}
	if p.Frames() != 0 {
		t.Errorf("frames=%d; want 0", p.Frames())
	}
}

func TestProcessFrameEmitsInOrder(t *testing.T) {
	rec := &recorder{}
	p, err := New(smallConfig(5, 4), rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := p.ProcessFrame(uniformSamples(20, depth.NewSample(900, 0))); err != nil {
			t.Fatal(err)
		}
	}
	if len(rec.frames) != 12 {
		t.Fatalf("emitted %d frames; want 12", len(rec.frames))
	}
	for i, f := range rec.frames {
		if f.Kind != frame.Kinds[i%4] {
			t.Errorf("frame %d kind=%v; want %v", i, f.Kind, frame.Kinds[i%4])
		}
		if f.ID != i/4 {
			t.Errorf("frame %d id=%d; want %d", i, f.ID, i/4)
		}
		if f.Width != 5 || f.Height != 4 || len(f.Pix) != 20 {
			t.Errorf("frame %d is %dx%d with %d pixels; want 5x4 with 20", i, f.Width, f.Height, len(f.Pix))
		}
	}
}

// Raw value 255 at every pixel for three frames, starting from empty history
func TestMovingAverageWarmUp(t *testing.T) {
	rec := &recorder{}
	p, err := New(smallConfig(6, 5), rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	full := uniformSamples(30, depth.NewSample(0x1FFF, 0))
	for i := 0; i < 4; i++ {
		if err := p.ProcessFrame(full); err != nil {
			t.Fatal(err)
		}
	}

	// (255+0+0)/3, (255+85+0)/3, (255+113+85)/3, (255+151+113)/3
	want := []uint8{85, 113, 151, 173}
	for i, w := range want {
		avg := rec.frames[i*4+2]
		blurred := rec.frames[i*4+3]
		for j := range avg.Pix {
			if avg.Pix[j] != w {
				t.Fatalf("frame %d avg[%d]=%d; want %d", i, j, avg.Pix[j], w)
			}
			if blurred.Pix[j] != w {
				t.Fatalf("frame %d blurred[%d]=%d; want %d", i, j, blurred.Pix[j], w)
			}
		}
		raw := rec.frames[i*4]
		if raw.Pix[0] != 255 {
			t.Errorf("frame %d raw[0]=%d; want 255", i, raw.Pix[0])
		}
	}
}

// Distinct raw values a, b, c at one pixel follow the shift register recurrence
func TestMovingAverageHistoryShift(t *testing.T) {
	rec := &recorder{}
	p, err := New(smallConfig(1, 1), rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	ranges := []uint16{1600, 200 + 700, 200 + 280} // raw 255, 128, 51
	raws := []int{255, 128, 51}
	var avgs []int
	p1, p2 := 0, 0
	for i, r := range ranges {
		if err := p.ProcessFrame([]uint16{uint16(depth.NewSample(r, 0))}); err != nil {
			t.Fatal(err)
		}
		if got := int(rec.frames[i*4].Pix[0]); got != raws[i] {
			t.Fatalf("frame %d raw=%d; want %d", i, got, raws[i])
		}
		want := (raws[i] + p1 + p2) / 3
		p2, p1 = p1, want
		avgs = append(avgs, want)
		if got := int(rec.frames[i*4+2].Pix[0]); got != want {
			t.Errorf("frame %d avg=%d; want %d", i, got, want)
		}
	}
	if avgs[0] != 85 || avgs[1] != 71 || avgs[2] != 69 {
		t.Errorf("avgs=%v; want [85 71 69]", avgs)
	}
}

func TestResetRestartsWarmUp(t *testing.T) {
	rec := &recorder{}
	p, err := New(smallConfig(2, 2), rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	full := uniformSamples(4, depth.NewSample(0x1FFF, 0))
	for i := 0; i < 3; i++ {
		p.ProcessFrame(full)
	}
	p.Reset()
	p.ProcessFrame(full)
	if got := rec.frames[len(rec.frames)-2].Pix[0]; got != 85 {
		t.Errorf("avg after reset=%d; want 85", got)
	}
	if p.Frames() != 4 {
		t.Errorf("frames=%d; want 4", p.Frames())
	}
}

func TestRejectedSamplesCounted(t *testing.T) {
	p, err := New(smallConfig(2, 2), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	samples := []uint16{0x0064, 0x2064, 0x2640, 0x0640}
	if err := p.ProcessFrame(samples); err != nil {
		t.Fatal(err)
	}
	if p.LastRejected() != 2 {
		t.Errorf("rejected=%d; want 2", p.LastRejected())
	}
}

func TestNoiseReducedIsBoxBlurredRaw(t *testing.T) {
	rec := &recorder{}
	p, err := New(smallConfig(5, 1), rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	// raw 0 0 255 0 0
	samples := uniformSamples(5, depth.NewSample(0, 0))
	samples[2] = uint16(depth.NewSample(1600, 0))
	if err := p.ProcessFrame(samples); err != nil {
		t.Fatal(err)
	}
	want := []uint8{0, 85, 85, 85, 0}
	noise := rec.frames[1]
	for i := range want {
		if noise.Pix[i] != want[i] {
			t.Errorf("noise[%d]=%d; want %d", i, noise.Pix[i], want[i])
		}
	}
}

func TestMedianAndGaussOptions(t *testing.T) {
	cfg := smallConfig(5, 5)
	cfg.NoiseReduceFilter = FilterMedian
	cfg.AverageBlur = BlurGauss
	cfg.AverageBlurRadius = 2
	rec := &recorder{}
	p, err := New(cfg, rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	samples := uniformSamples(25, depth.NewSample(900, 0))
	samples[12] = uint16(depth.NewSample(1600, 0)) // single hot pixel
	if err := p.ProcessFrame(samples); err != nil {
		t.Fatal(err)
	}
	noise := rec.frames[1]
	for i, v := range noise.Pix {
		if v != 128 {
			t.Errorf("noise[%d]=%d; want 128", i, v)
		}
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	cfg := smallConfig(40, 70)
	samples := make([]uint16, 40*70)
	for i := range samples {
		samples[i] = uint16(depth.NewSample(uint16(i*37%2000), uint8(i%8)))
	}

	serial, parallel := &recorder{}, &recorder{}
	ps, _ := New(cfg, serial, &Context{Log: &bytes.Buffer{}, MaxThreads: 1})
	pp, _ := New(cfg, parallel, &Context{Log: &bytes.Buffer{}, MaxThreads: 4})
	for i := 0; i < 3; i++ {
		if err := ps.ProcessFrame(samples); err != nil {
			t.Fatal(err)
		}
		if err := pp.ProcessFrame(samples); err != nil {
			t.Fatal(err)
		}
	}
	if ps.LastRejected() != pp.LastRejected() {
		t.Errorf("rejected serial=%d parallel=%d", ps.LastRejected(), pp.LastRejected())
	}
	for i := range serial.frames {
		for j := range serial.frames[i].Pix {
			if serial.frames[i].Pix[j] != parallel.frames[i].Pix[j] {
				t.Fatalf("frame %d pixel %d serial=%d parallel=%d", i, j, serial.frames[i].Pix[j], parallel.frames[i].Pix[j])
			}
		}
	}
}

func TestSinkErrorStopsEmission(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	sink := &VisualizerFuncs{
		RawDataAvailable:        func(*frame.Frame) error { calls++; return nil },
		NoiseReductionAvailable: func(*frame.Frame) error { calls++; return boom },
		MovingAverageAvailable:  func(*frame.Frame) error { calls++; return nil },
	}
	p, err := New(smallConfig(2, 2), sink, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = p.ProcessFrame(make([]uint16, 4))
	if !errors.Is(err, boom) {
		t.Errorf("err=%v; want wrapping boom", err)
	}
	if calls != 2 {
		t.Errorf("calls=%d; want 2", calls)
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	p, err := New(smallConfig(2, 2), MultiSink{a, b}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ProcessFrame(make([]uint16, 4)); err != nil {
		t.Fatal(err)
	}
	if len(a.frames) != 4 || len(b.frames) != 4 {
		t.Errorf("a=%d b=%d; want 4 4", len(a.frames), len(b.frames))
	}
}

func TestConfigJSONDefaults(t *testing.T) {
	var cfg Config
	if err := json.Unmarshal([]byte(`{"width": 320, "averageBlur": "gauss"}`), &cfg); err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.Width = 320
	want.AverageBlur = BlurGauss
	if cfg != want {
		t.Errorf("cfg=%+v; want %+v", cfg, want)
	}
}

func TestLoadConfig(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "tof.json")
	if err := os.WriteFile(fileName, []byte(`{"rangeMin": 100, "rangeMax": 4000}`), 0666); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RangeMin != 100 || cfg.RangeMax != 4000 || cfg.Width != 240 || cfg.Height != 180 {
		t.Errorf("cfg=%+v; want range [100,4000] at 240x180", cfg)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("missing file err=nil; want error")
	}
}
