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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	nl "github.com/mlnoga/tofview/internal"
	"github.com/mlnoga/tofview/internal/frame"
	"github.com/mlnoga/tofview/internal/pipeline"
	"github.com/mlnoga/tofview/internal/rest"
	"github.com/mlnoga/tofview/internal/sink"
	"github.com/mlnoga/tofview/internal/source"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")
var log = flag.String("log", "", "save log output to `file`")

var config = flag.String("config", "", "load pipeline configuration from JSON `file`. Flags given explicitly override its entries")
var width = flag.Int("width", 240, "frame width in pixels")
var height = flag.Int("height", 180, "frame height in pixels")
var conf = flag.Float64("conf", 0.1, "confidence threshold in [0,1). Samples at or below it are dropped")
var rangeMin = flag.Float64("rangeMin", 200, "near limit of the displayed range, in sensor units")
var rangeMax = flag.Float64("rangeMax", 1600, "far limit of the displayed range, in sensor units")
var noiseRadius = flag.Int("noiseRadius", 1, "radius of the noise reduction filter, 0=no op")
var avgRadius = flag.Int("avgRadius", 1, "radius of the moving average blur, or sigma for gauss, 0=no op")
var noiseFilter = flag.String("noiseFilter", "box", "noise reduction filter, one of box or median")
var avgBlur = flag.String("avgBlur", "box", "moving average blur, one of box or gauss")
var threads = flag.Int("threads", 0, "maximum number of threads, 0=auto")

var cmap = flag.String("cmap", "green", "color map for image output, one of green, gray or hcl")
var raw = flag.String("raw", "", "save raw frames with given filename pattern, e.g. `raw%05d.png`")
var noise = flag.String("noise", "", "save noise reduced frames with given filename pattern, e.g. `noise%05d.png`")
var avg = flag.String("avg", "", "save moving average frames with given filename pattern, e.g. `avg%05d.png`")
var blurred = flag.String("blurred", "", "save blurred moving average frames with given filename pattern, e.g. `blurred%05d.png`")
var stats = flag.Bool("stats", true, "log statistics for each output frame")

var frames = flag.Int("frames", 100, "number of synthetic frames")
var seed = flag.Uint("seed", 1, "random seed for synthetic frames")
var out = flag.String("out", "synth.raw", "save synthetic frames to `file`")

var addr = flag.String("addr", ":8080", "listen on this address when serving")
var chroot = flag.String("chroot", "", "chroot to this directory before serving, requires root")
var setuid = flag.Int("setuid", -1, "change to this user id before serving, -1=no op")

func main() {
	logWriter := nl.LogWriter
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Tofview Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (process|synth|serve|legal|version) (frames0.raw ... framesn.raw)

Commands:
  process Run raw DEPTH16 frame files through the pipeline and save the outputs
  synth   Write synthetic raw DEPTH16 frames to the -out file
  serve   Serve the pipeline over HTTP. Frames are posted to /api/v1/frame
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *log != "" {
		if err := nl.LogAlsoToFile(*log); err != nil {
			nl.LogFatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			nl.LogFatalf("Could not create CPU profile: %s\n", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			nl.LogFatalf("Could not start CPU profile: %s\n", err)
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	var err error
	switch args[0] {
	case "process":
		err = cmdProcess(args[1:], logWriter)
	case "synth":
		err = cmdSynth(logWriter)
	case "serve":
		err = cmdServe(logWriter)
	case "legal":
		nl.LogPrintf("%s", legal)
	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)
	case "help", "?":
		flag.Usage()
	default:
		err = errors.New(fmt.Sprintf("unknown command '%s'", args[0]))
	}
	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		nl.LogSync()
		pprof.StopCPUProfile()
		os.Exit(-1)
	}

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			nl.LogFatalf("Could not create memory profile: %s\n", err)
		}
		defer f.Close()
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			nl.LogFatalf("Could not write allocation profile: %s\n", err)
		}
	}

	if args[0] == "process" || args[0] == "synth" {
		fmt.Fprintf(logWriter, "Done after %v\n", time.Since(start))
	}
	nl.LogSync()
}

// Builds the pipeline configuration from the optional config file, overridden by explicitly set flags
func loadConfig() (cfg pipeline.Config, err error) {
	cfg = pipeline.DefaultConfig()
	if *config != "" {
		if cfg, err = pipeline.LoadConfig(*config); err != nil {
			return cfg, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "conf":
			cfg.ConfidenceThreshold = float32(*conf)
		case "rangeMin":
			cfg.RangeMin = float32(*rangeMin)
		case "rangeMax":
			cfg.RangeMax = float32(*rangeMax)
		case "noiseRadius":
			cfg.NoiseReduceRadius = *noiseRadius
		case "avgRadius":
			cfg.AverageBlurRadius = *avgRadius
		case "noiseFilter":
			cfg.NoiseReduceFilter = *noiseFilter
		case "avgBlur":
			cfg.AverageBlur = *avgBlur
		}
	})
	return cfg, cfg.Validate()
}

func newContext(logWriter io.Writer) *pipeline.Context {
	c := pipeline.NewContext(logWriter)
	if *threads > 0 {
		c.MaxThreads = *threads
	}
	fmt.Fprintf(logWriter, "Running on %s\n", c)
	return c
}

func cmdProcess(args []string, logWriter io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := frame.ParseColorMap(*cmap)
	if err != nil {
		return err
	}
	fileNames, err := source.Glob(args, logWriter)
	if err != nil {
		return err
	}

	sinks := pipeline.MultiSink{sink.NewFileSink([4]string{*raw, *noise, *avg, *blurred}, m, logWriter)}
	if *stats {
		sinks = append(sinks, sink.NewStatsSink(logWriter))
	}
	c := newContext(logWriter)
	p, err := pipeline.New(cfg, sinks, c)
	if err != nil {
		return err
	}

	src := source.NewFileSource(fileNames, cfg.Width, cfg.Height, logWriter)
	for res := range source.Prefetch(src, source.PrefetchDepth(cfg.Width, cfg.Height)) {
		if res.Err == io.EOF {
			break
		} else if res.Err != nil {
			return res.Err
		}
		if err := p.ProcessFrame(res.Samples); err != nil {
			return err
		}
		if n := p.LastRejected(); n > 0 {
			fmt.Fprintf(logWriter, "%d: %d samples below confidence threshold\n", p.Frames()-1, n)
		}
	}
	fmt.Fprintf(logWriter, "Processed %d frames\n", p.Frames())
	return nil
}

func cmdSynth(logWriter io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(logWriter, "Writing %d synthetic %dx%d frames to %s\n", *frames, cfg.Width, cfg.Height, *out)
	src := source.NewSynth(cfg.Width, cfg.Height, *frames, uint32(*seed))
	for {
		samples, err := src.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		if err := source.WriteRaw(f, samples); err != nil {
			return err
		}
	}
	return f.Close()
}

func cmdServe(logWriter io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	latest := sink.NewLatestSink()
	var sinks pipeline.Sink = latest
	if *stats {
		sinks = pipeline.MultiSink{latest, sink.NewStatsSink(logWriter)}
	}
	p, err := pipeline.New(cfg, sinks, newContext(logWriter))
	if err != nil {
		return err
	}

	if err := rest.MakeSandbox(*chroot, *setuid, logWriter); err != nil {
		return err
	}
	return rest.NewServer(p, latest, logWriter).Serve(*addr)
}
