// Package render paints one tile's worth of merged cell values as a
// PNG heatmap, for the demo HTTP surface (SPEC_FULL.md §3.7). Adapted
// from the teacher's bin renderer: same sync.Pool'd gg.Context and
// buffer, same fast-PNG encode path, repurposed from rendering cell
// counts over a 2D bin grid to rendering one schema attribute's
// decoded float32 values over a single fragment tile.
package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"github.com/ndstore/arrayread/pkg/colormap"
)

// Config controls rendering output size and default palette.
type Config struct {
	TileSize        int
	DefaultColormap string
}

// TileRenderer paints a tile's cell values into a fixed-size PNG.
type TileRenderer struct {
	config      Config
	contextPool sync.Pool
	bufferPool  sync.Pool
	colormaps   map[string]colormap.Colormap
}

// NewTileRenderer constructs a renderer from cfg.
func NewTileRenderer(cfg Config) *TileRenderer {
	r := &TileRenderer{
		config: cfg,
		contextPool: sync.Pool{
			New: func() interface{} {
				return gg.NewContext(cfg.TileSize, cfg.TileSize)
			},
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
		colormaps: make(map[string]colormap.Colormap),
	}

	r.colormaps["viridis"] = colormap.Viridis
	r.colormaps["plasma"] = colormap.Plasma
	r.colormaps["inferno"] = colormap.Inferno
	r.colormaps["magma"] = colormap.Magma
	r.colormaps["seurat"] = colormap.Seurat
	r.colormaps["categorical"] = colormap.Categorical

	return r
}

// RenderAttributeTile paints cells (row-major, extent[0] rows by
// extent[1] columns, one value per cell of one attribute already
// decoded by the caller) as a heatmap scaled to fill the full tile
// canvas, linearly mapping [valueMin, valueMax] through colormapName.
func (r *TileRenderer) RenderAttributeTile(cells []float32, extent [2]int, valueMin, valueMax float32, colormapName string) ([]byte, error) {
	dc := r.contextPool.Get().(*gg.Context)
	defer r.contextPool.Put(dc)

	dc.SetColor(color.White)
	dc.Clear()

	if len(cells) == 0 || extent[0] <= 0 || extent[1] <= 0 {
		return r.encodeContext(dc)
	}

	cmap, ok := r.colormaps[colormapName]
	if !ok {
		cmap = r.colormaps[r.config.DefaultColormap]
	}

	valueRange := valueMax - valueMin
	if valueRange == 0 {
		valueRange = 1
	}

	tileSize := float64(r.config.TileSize)
	cellW := tileSize / float64(extent[1])
	cellH := tileSize / float64(extent[0])

	for row := 0; row < extent[0]; row++ {
		for col := 0; col < extent[1]; col++ {
			idx := row*extent[1] + col
			if idx >= len(cells) {
				continue
			}
			normalized := float64((cells[idx] - valueMin) / valueRange)
			if normalized < 0 {
				normalized = 0
			}
			if normalized > 1 {
				normalized = 1
			}
			dc.SetColor(cmap.At(normalized))
			dc.DrawRectangle(float64(col)*cellW, float64(row)*cellH, cellW, cellH)
			dc.Fill()
		}
	}

	return r.encodeContext(dc)
}

// RenderCategoryTile paints cells by discrete category index instead
// of a continuous gradient; category < 0 is left unpainted (filtered
// out).
func (r *TileRenderer) RenderCategoryTile(categories []int, extent [2]int) ([]byte, error) {
	dc := r.contextPool.Get().(*gg.Context)
	defer r.contextPool.Put(dc)

	dc.SetColor(color.White)
	dc.Clear()

	if len(categories) == 0 || extent[0] <= 0 || extent[1] <= 0 {
		return r.encodeContext(dc)
	}

	cmap := r.colormaps["categorical"]
	tileSize := float64(r.config.TileSize)
	cellW := tileSize / float64(extent[1])
	cellH := tileSize / float64(extent[0])

	for row := 0; row < extent[0]; row++ {
		for col := 0; col < extent[1]; col++ {
			idx := row*extent[1] + col
			if idx >= len(categories) || categories[idx] < 0 {
				continue
			}
			dc.SetColor(cmap.AtIndex(categories[idx]))
			dc.DrawRectangle(float64(col)*cellW, float64(row)*cellH, cellW, cellH)
			dc.Fill()
		}
	}

	return r.encodeContext(dc)
}

func (r *TileRenderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// CreateEmptyTile returns a fully transparent tile of the configured
// size.
func (r *TileRenderer) CreateEmptyTile() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.config.TileSize, r.config.TileSize))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 0
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
