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

package rest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/tofview/internal/frame"
	"github.com/mlnoga/tofview/internal/pipeline"
	"github.com/mlnoga/tofview/internal/sink"
	"github.com/mlnoga/tofview/web"
)

// Serves a pipeline over HTTP. Frames are posted as raw little-endian DEPTH16 bodies,
// the latest outputs are served as images and statistics
type Server struct {
	mutex    sync.Mutex // serializes frames into the pipeline
	pipeline *pipeline.Pipeline
	latest   *sink.LatestSink
	log      io.Writer
}

// Creates a server. The pipeline must emit into latest, possibly among other sinks
func NewServer(p *pipeline.Pipeline, latest *sink.LatestSink, log io.Writer) *Server {
	return &Server{pipeline: p, latest: latest, log: log}
}

// Returns the HTTP routes for this server
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(s.log), gin.Recovery())
	r.GET("/", s.getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/config", s.getConfig)
			v1.POST("/frame", s.postFrame)
			v1.GET("/frame/:kind", s.getFrame)
			v1.GET("/stats", s.getStats)
			v1.POST("/reset", s.postReset)
		}
	}
	return r
}

// Listens on the given address, e.g. ":8080", until an error occurs
func (s *Server) Serve(addr string) error {
	fmt.Fprintf(s.log, "Serving on %s\n", addr)
	return s.Router().Run(addr)
}

func (s *Server) getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.pipeline.Config())
}

func (s *Server) postFrame(c *gin.Context) {
	cfg := s.pipeline.Config()
	limit := int64(2*cfg.Width*cfg.Height) + 2 // oversized bodies still fail the size check
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, limit))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body)%2 != 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("odd body length %d", len(body))})
		return
	}
	samples := make([]uint16, len(body)/2)
	for i := range samples {
		samples[i] = binary.LittleEndian.Uint16(body[2*i:])
	}

	s.mutex.Lock()
	err = s.pipeline.ProcessFrame(samples)
	id, rejected := s.pipeline.Frames()-1, s.pipeline.LastRejected()
	s.mutex.Unlock()

	var pe *pipeline.PreconditionError
	if errors.As(err, &pe) {
		c.JSON(http.StatusBadRequest, gin.H{"error": pe.Error()})
		return
	} else if err != nil {
		fmt.Fprintf(s.log, "%d: error: %s\n", id, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"frame":    id,
		"rejected": rejected,
		"stats":    s.latestStats(),
	})
}

func (s *Server) getFrame(c *gin.Context) {
	kind, err := frame.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format, err := frame.FormatFromName(c.DefaultQuery("format", "png"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmap, err := frame.ParseColorMap(c.DefaultQuery("cmap", "green"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f := s.latest.Get(kind)
	if f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no %s frame yet", kind)})
		return
	}
	var buf bytes.Buffer
	if err := f.Encode(&buf, format, cmap); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-Frame-Id", fmt.Sprintf("%d", f.ID))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) getStats(c *gin.Context) {
	s.mutex.Lock()
	frames := s.pipeline.Frames()
	s.mutex.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"frames": frames,
		"stats":  s.latestStats(),
	})
}

func (s *Server) postReset(c *gin.Context) {
	s.mutex.Lock()
	s.pipeline.Reset()
	s.mutex.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "reset"})
}

// Statistics of the latest frame of each kind seen so far, keyed by kind name
func (s *Server) latestStats() map[string]frame.Stats {
	stats := map[string]frame.Stats{}
	for _, k := range frame.Kinds {
		if f := s.latest.Get(k); f != nil {
			stats[k.String()] = f.Stats()
		}
	}
	return stats
}
