package render

import (
	"bytes"
	"image/png"
	"testing"
)

func testRenderer(t *testing.T) *TileRenderer {
	t.Helper()
	return NewTileRenderer(Config{TileSize: 16, DefaultColormap: "viridis"})
}

func TestRenderAttributeTileProducesValidPNG(t *testing.T) {
	r := testRenderer(t)
	cells := make([]float32, 25)
	for i := range cells {
		cells[i] = float32(i)
	}
	png, err := r.RenderAttributeTile(cells, [2]int{5, 5}, 0, 24, "viridis")
	if err != nil {
		t.Fatalf("RenderAttributeTile: %v", err)
	}
	decodeAndCheckSize(t, png, 16, 16)
}

func TestRenderAttributeTileEmptyCellsStillValidPNG(t *testing.T) {
	r := testRenderer(t)
	png, err := r.RenderAttributeTile(nil, [2]int{0, 0}, 0, 1, "viridis")
	if err != nil {
		t.Fatalf("RenderAttributeTile: %v", err)
	}
	decodeAndCheckSize(t, png, 16, 16)
}

func TestRenderCategoryTileSkipsNegativeCategories(t *testing.T) {
	r := testRenderer(t)
	cats := []int{0, -1, 1, -1}
	png, err := r.RenderCategoryTile(cats, [2]int{2, 2})
	if err != nil {
		t.Fatalf("RenderCategoryTile: %v", err)
	}
	decodeAndCheckSize(t, png, 16, 16)
}

func TestCreateEmptyTileIsTransparent(t *testing.T) {
	r := testRenderer(t)
	data, err := r.CreateEmptyTile()
	if err != nil {
		t.Fatalf("CreateEmptyTile: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	_, _, _, a := img.At(0, 0).RGBA()
	if a != 0 {
		t.Errorf("expected fully transparent pixel, got alpha=%d", a)
	}
}

func decodeAndCheckSize(t *testing.T, data []byte, w, h int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		t.Errorf("decoded size = %dx%d, want %dx%d", b.Dx(), b.Dy(), w, h)
	}
}
