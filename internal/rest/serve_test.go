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
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/tofview/internal/depth"
	"github.com/mlnoga/tofview/internal/pipeline"
	"github.com/mlnoga/tofview/internal/sink"
	"github.com/mlnoga/tofview/internal/source"
)

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	cfg := pipeline.DefaultConfig()
	cfg.Width, cfg.Height = 8, 6
	latest := sink.NewLatestSink()
	p, err := pipeline.New(cfg, latest, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(p, latest, io.Discard)
	return s, s.Router()
}

func do(r http.Handler, method, url string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	r.ServeHTTP(w, req)
	return w
}

func rawBody(n int, s depth.Sample) []byte {
	samples := make([]uint16, n)
	for i := range samples {
		samples[i] = uint16(s)
	}
	var buf bytes.Buffer
	source.WriteRaw(&buf, samples)
	return buf.Bytes()
}

func TestPing(t *testing.T) {
	_, r := newTestServer(t)
	w := do(r, http.MethodGet, "/api/v1/ping", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("pong")) {
		t.Errorf("code=%d body=%s; want 200 pong", w.Code, w.Body.String())
	}
}

func TestIndex(t *testing.T) {
	_, r := newTestServer(t)
	w := do(r, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("<html")) {
		t.Errorf("code=%d; want 200 with html", w.Code)
	}
}

func TestConfig(t *testing.T) {
	_, r := newTestServer(t)
	w := do(r, http.MethodGet, "/api/v1/config", nil)
	var cfg pipeline.Config
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 8 || cfg.Height != 6 {
		t.Errorf("config=%v; want 8x6", cfg)
	}
}

func TestFrameBeforePost(t *testing.T) {
	_, r := newTestServer(t)
	if w := do(r, http.MethodGet, "/api/v1/frame/raw", nil); w.Code != http.StatusNotFound {
		t.Errorf("code=%d; want 404", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/frame/bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("code=%d; want 400", w.Code)
	}
}

func TestPostFrameWrongSize(t *testing.T) {
	s, r := newTestServer(t)
	for _, n := range []int{0, 47, 49, 1000} {
		w := do(r, http.MethodPost, "/api/v1/frame", rawBody(n, 0))
		if w.Code != http.StatusBadRequest {
			t.Errorf("n=%d code=%d; want 400", n, w.Code)
		}
	}
	if w := do(r, http.MethodPost, "/api/v1/frame", []byte{1, 2, 3}); w.Code != http.StatusBadRequest {
		t.Errorf("odd body code=%d; want 400", w.Code)
	}
	if s.pipeline.Frames() != 0 {
		t.Errorf("frames=%d; want 0", s.pipeline.Frames())
	}
}

func TestPostFrameAndFetch(t *testing.T) {
	_, r := newTestServer(t)
	body := rawBody(48, depth.NewSample(1600, 7))
	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/api/v1/frame", body)
		if w.Code != http.StatusOK {
			t.Fatalf("code=%d body=%s; want 200", w.Code, w.Body.String())
		}
		var res struct {
			Frame    int `json:"frame"`
			Rejected int `json:"rejected"`
			Stats    map[string]struct {
				Max float64 `json:"max"`
			} `json:"stats"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatal(err)
		}
		if res.Frame != i || res.Rejected != 0 || len(res.Stats) != 4 || res.Stats["raw"].Max != 255 {
			t.Errorf("response=%+v; want frame %d with 4 stats", res, i)
		}
	}

	w := do(r, http.MethodGet, "/api/v1/frame/average?format=png&cmap=gray", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("code=%d type=%s; want 200 image/png", w.Code, w.Header().Get("Content-Type"))
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Errorf("bounds=%v; want 8x6", b)
	}
	if id := w.Header().Get("X-Frame-Id"); id != "1" {
		t.Errorf("X-Frame-Id=%s; want 1", id)
	}

	if w := do(r, http.MethodGet, "/api/v1/frame/raw?format=gif", nil); w.Code != http.StatusBadRequest {
		t.Errorf("gif code=%d; want 400", w.Code)
	}

	w = do(r, http.MethodGet, "/api/v1/stats", nil)
	if !bytes.Contains(w.Body.Bytes(), []byte(`"frames":2`)) {
		t.Errorf("stats=%s; want 2 frames", w.Body.String())
	}

	if w := do(r, http.MethodPost, "/api/v1/reset", nil); w.Code != http.StatusOK {
		t.Errorf("reset code=%d; want 200", w.Code)
	}
}
