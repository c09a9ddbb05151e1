package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndstore/arrayread/internal/fragment"
	"github.com/ndstore/arrayread/internal/readstate"
	"github.com/ndstore/arrayread/internal/render"
	"github.com/ndstore/arrayread/internal/schema"
)

type fakeSource struct {
	sch *schema.Schema[int64]
}

func (f *fakeSource) Schema() *schema.Schema[int64] { return f.sch }

func (f *fakeSource) NewReader(queryRange [][2]int64) (readstate.Reader, error) {
	data := make([]byte, 100*4)
	for i := 0; i < 100; i++ {
		data[i*4] = byte(i)
	}
	frag := fragment.NewDenseFragment(f.sch, [][2]int64{{0, 9}, {0, 9}}, [][]byte{data})
	return readstate.Construct(f.sch, []fragment.Fragment[int64]{frag}, queryRange, nil)
}

func newTestSchema(t *testing.T) *schema.Schema[int64] {
	t.Helper()
	sch, err := schema.New[int64](
		[][2]int64{{0, 9}, {0, 9}},
		[]int64{5, 5},
		schema.RowMajor,
		[]schema.Attribute{{Name: "a", CellSize: 4, FillValue: []byte{0, 0, 0, 0}}},
	)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return sch
}

func TestHealthEndpoint(t *testing.T) {
	r := NewRouter(RouterConfig{Source: &fakeSource{sch: newTestSchema(t)}, Renderer: render.NewTileRenderer(render.Config{TileSize: 16, DefaultColormap: "viridis"})})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestTileEndpointRendersPNG(t *testing.T) {
	r := NewRouter(RouterConfig{Source: &fakeSource{sch: newTestSchema(t)}, Renderer: render.NewTileRenderer(render.Config{TileSize: 16, DefaultColormap: "viridis"})})
	req := httptest.NewRequest(http.MethodGet, "/tiles/0/0/0.png", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
}

func TestTileEndpointRejectsBadCoords(t *testing.T) {
	r := NewRouter(RouterConfig{Source: &fakeSource{sch: newTestSchema(t)}, Renderer: render.NewTileRenderer(render.Config{TileSize: 16, DefaultColormap: "viridis"})})
	req := httptest.NewRequest(http.MethodGet, "/tiles/0/notanumber/0.png", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
