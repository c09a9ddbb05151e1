// Package httpapi exposes the demo tile-rendering HTTP surface
// (SPEC_FULL.md §3.7): one array, queried tile by tile, rendered as a
// PNG heatmap. Adapted from the teacher's chi/cors router: same
// middleware stack and dataset-scoped routing pattern, trimmed to the
// one array this module serves and repointed at readstate instead of
// a dataset registry of SOMA/Zarr-backed TileServices. This surface is
// optional tooling, not wired into cmd/arrayread's default path.
package httpapi

import (
	"encoding/binary"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ndstore/arrayread/internal/planqueue"
	"github.com/ndstore/arrayread/internal/readstate"
	"github.com/ndstore/arrayread/internal/render"
	"github.com/ndstore/arrayread/internal/schema"
)

// ArraySource builds a fresh Reader over a query range; one query per
// HTTP request, matching spec §5's "one ReadState per query" model.
type ArraySource interface {
	Schema() *schema.Schema[int64]
	NewReader(queryRange [][2]int64) (readstate.Reader, error)
}

// RouterConfig wires the demo server's collaborators.
type RouterConfig struct {
	Source      ArraySource
	Cache       *planqueue.Manager
	Renderer    *render.TileRenderer
	CORSOrigins []string
	Log         *logrus.Logger
}

// NewRouter builds the chi router for the demo tile surface.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(requestIDLogger(cfg.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/tiles/{z}/{x}/{y}.png", tileHandler(cfg))

	return r
}

func requestIDLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logrus.New()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			entry := log.WithField("request_id", id)
			entry.WithField("path", r.URL.Path).Info("request received")
			next.ServeHTTP(w, r)
		})
	}
}

// tileHandler answers one tile of the array: z is unused (the array
// has no pyramid levels — spec's Non-goals exclude multi-resolution),
// x/y select which schema tile (in tile-coordinate space) to render.
func tileHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		x, errX := strconv.ParseInt(chi.URLParam(r, "x"), 10, 64)
		y, errY := strconv.ParseInt(chi.URLParam(r, "y"), 10, 64)
		if errX != nil || errY != nil {
			http.Error(w, "invalid tile coordinates", http.StatusBadRequest)
			return
		}

		sch := cfg.Source.Schema()
		if sch.Dims != 2 {
			http.Error(w, "tile rendering only supports 2D arrays", http.StatusNotImplemented)
			return
		}

		tileAbs := sch.TileRectAbs([]int64{x, y})
		cacheKey := planqueue.TileKey("default", []int64{x, y}, 0)
		if cfg.Cache != nil {
			if data, ok := cfg.Cache.GetTile(cacheKey); ok {
				writePNG(w, data)
				return
			}
		}

		reader, err := cfg.Source.NewReader(tileAbs)
		if err != nil {
			http.Error(w, "query construction failed: "+err.Error(), http.StatusBadRequest)
			return
		}

		rows := int(tileAbs[0][1] - tileAbs[0][0] + 1)
		cols := int(tileAbs[1][1] - tileAbs[1][0] + 1)
		buf := make([]byte, rows*cols*4)
		offset := 0
		for offset < len(buf) {
			written, status, err := reader.Read(map[int][]byte{0: buf[offset:]})
			if err != nil {
				http.Error(w, "read failed: "+err.Error(), http.StatusInternalServerError)
				return
			}
			offset += written[0]
			if status == readstate.Ok {
				break
			}
		}

		cells := make([]float32, rows*cols)
		for i := range cells {
			bits := binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
			cells[i] = float32(bits)
		}

		colormapName := r.URL.Query().Get("colormap")
		if colormapName == "" {
			colormapName = "viridis"
		}
		data, err := cfg.Renderer.RenderAttributeTile(cells, [2]int{rows, cols}, 0, 255, colormapName)
		if err != nil {
			http.Error(w, "render failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if cfg.Cache != nil {
			cfg.Cache.SetTile(cacheKey, data)
		}
		writePNG(w, data)
	}
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
