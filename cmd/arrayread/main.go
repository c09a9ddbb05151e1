// Package main is the command-line entry point for arrayread: a
// config-driven harness that loads one array fixture (schema +
// fragment manifest) and drives it through the merge engine, the
// fragment catalog, and the tile renderer without standing up the
// demo HTTP server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ndstore/arrayread/internal/catalog"
	"github.com/ndstore/arrayread/internal/config"
	"github.com/ndstore/arrayread/internal/planqueue"
	"github.com/ndstore/arrayread/internal/readstate"
	"github.com/ndstore/arrayread/internal/render"
)

var (
	configPath string
	log        = logrus.New()
)

func main() {
	root := &cobra.Command{
		Use:   "arrayread",
		Short: "Drive a dense multi-fragment array through a read query",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/arrayread.yaml", "path to array fixture config")

	root.AddCommand(newReadCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newTileCmd())

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("arrayread failed")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newReadCmd drives a query end to end in a loop over a fixed-size
// buffer, printing each call's bytes written and resulting status —
// a CLI harness for the resume/overflow behavior a streaming client
// would rely on.
func newReadCmd() *cobra.Command {
	var bufferBytes int
	var attr int
	var queryRange []string

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read an attribute over a query range, resuming across a fixed buffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			qr, err := parseQueryRange(queryRange, cfg)
			if err != nil {
				return err
			}

			entry := log.WithField("component", "read")
			reader, err := config.BuildReader(cfg, qr, entry)
			if err != nil {
				return fmt.Errorf("constructing reader: %w", err)
			}

			buf := make([]byte, bufferBytes)
			totalBytes := 0
			calls := 0
			start := time.Now()
			for {
				written, status, err := reader.Read(map[int][]byte{attr: buf})
				if err != nil {
					return fmt.Errorf("read call %d failed: %w", calls, err)
				}
				calls++
				totalBytes += written[attr]
				entry.WithFields(logrus.Fields{
					"call":   calls,
					"wrote":  humanize.Bytes(uint64(written[attr])),
					"status": status,
				}).Info("read call completed")
				if status != readstate.Overflow {
					break
				}
			}

			entry.WithFields(logrus.Fields{
				"total_bytes": humanize.Bytes(uint64(totalBytes)),
				"calls":       calls,
				"elapsed":     time.Since(start),
			}).Info("read complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&bufferBytes, "buffer-bytes", 1024, "buffer size in bytes for each Read call")
	cmd.Flags().IntVar(&attr, "attr", 0, "attribute index to read")
	cmd.Flags().StringArrayVar(&queryRange, "range", nil, "per-dimension query range \"lo,hi\"; defaults to the full domain")

	return cmd
}

func parseQueryRange(raw []string, cfg *config.Config) ([][2]int64, error) {
	if len(raw) == 0 {
		qr := make([][2]int64, len(cfg.Schema.Domain))
		copy(qr, cfg.Schema.Domain)
		return qr, nil
	}
	if len(raw) != len(cfg.Schema.Domain) {
		return nil, fmt.Errorf("range has %d dimensions, schema has %d", len(raw), len(cfg.Schema.Domain))
	}
	qr := make([][2]int64, len(raw))
	for i, r := range raw {
		var lo, hi int64
		if _, err := fmt.Sscanf(r, "%d,%d", &lo, &hi); err != nil {
			return nil, fmt.Errorf("parsing range %q: %w", r, err)
		}
		qr[i] = [2]int64{lo, hi}
	}
	return qr, nil
}

// newCatalogCmd manages the fragment catalog backing an array: every
// read command's manifest ultimately comes from entries like these in
// a full deployment, though the read/tile commands here still read
// straight from cfg.Schema.ManifestPath for simplicity.
func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or update the fragment catalog",
	}
	cmd.AddCommand(newCatalogListCmd())
	cmd.AddCommand(newCatalogAddCmd())
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	var arrayID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered fragments for an array, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg.Catalog.DBPath)
			if err != nil {
				return fmt.Errorf("opening catalog: %w", err)
			}
			defer store.Close()

			records, err := store.ListByArray(arrayID)
			if err != nil {
				return fmt.Errorf("listing fragments: %w", err)
			}
			for i, rec := range records {
				fmt.Printf("%d\t%s\t%s\t%s\n", i, rec.ID, rec.WrittenAt.Format(time.RFC3339), rec.ManifestPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&arrayID, "array", "default", "array id to list fragments for")
	return cmd
}

func newCatalogAddCmd() *cobra.Command {
	var arrayID, manifestPath string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a fragment manifest against an array",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg.Catalog.DBPath)
			if err != nil {
				return fmt.Errorf("opening catalog: %w", err)
			}
			defer store.Close()

			id, err := store.Register(arrayID, manifestPath, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("registering fragment: %w", err)
			}
			fmt.Println(id)
			return nil
		},
	}
	cmd.Flags().StringVar(&arrayID, "array", "default", "array id to register the fragment under")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "path to the fragment's manifest file")
	cmd.MarkFlagRequired("manifest")
	return cmd
}

// newTileCmd renders one schema tile of a 2D int64 array to a PNG
// file through the same render path the demo HTTP server uses,
// without needing the server running. It builds a planqueue.Manager
// from the config but neither reads from nor writes to its caches.
func newTileCmd() *cobra.Command {
	var tileX, tileY int64
	var outPath, colormapName string

	cmd := &cobra.Command{
		Use:   "tile",
		Short: "Render one schema tile of a 2D int64 array to a PNG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			entry := log.WithField("component", "tile")
			source, err := config.BuildInt64Source(cfg, entry)
			if err != nil {
				return fmt.Errorf("building array source: %w", err)
			}

			sch := source.Schema()
			if sch.Dims != 2 {
				return fmt.Errorf("tile rendering only supports 2D arrays, got %d dims", sch.Dims)
			}

			cache, err := planqueue.NewManager(planqueue.Config{
				PlanCacheEntries: cfg.Cache.PlanCacheEntries,
				TileCacheSizeMB:  cfg.Cache.TileCacheSizeMB,
			})
			if err != nil {
				return fmt.Errorf("building cache: %w", err)
			}
			defer cache.Close()

			renderer := render.NewTileRenderer(render.Config{
				TileSize:        cfg.Render.TileSize,
				DefaultColormap: cfg.Render.DefaultColormap,
			})

			tileAbs := sch.TileRectAbs([]int64{tileX, tileY})
			reader, err := source.NewReader(tileAbs)
			if err != nil {
				return fmt.Errorf("constructing reader: %w", err)
			}

			rows := int(tileAbs[0][1] - tileAbs[0][0] + 1)
			cols := int(tileAbs[1][1] - tileAbs[1][0] + 1)
			buf := make([]byte, rows*cols*4)
			offset := 0
			for offset < len(buf) {
				written, status, err := reader.Read(map[int][]byte{0: buf[offset:]})
				if err != nil {
					return fmt.Errorf("read failed: %w", err)
				}
				offset += written[0]
				if status != readstate.Overflow {
					break
				}
			}

			cells := make([]float32, rows*cols)
			for i := range cells {
				cells[i] = decodeFloat32Cell(buf[i*4 : i*4+4])
			}

			png, err := renderer.RenderAttributeTile(cells, [2]int{rows, cols}, 0, 255, colormapName)
			if err != nil {
				return fmt.Errorf("rendering tile: %w", err)
			}

			if err := os.WriteFile(outPath, png, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}

			entry.WithFields(logrus.Fields{
				"tile":  fmt.Sprintf("(%d,%d)", tileX, tileY),
				"bytes": humanize.Bytes(uint64(len(png))),
				"path":  outPath,
			}).Info("tile rendered")
			return nil
		},
	}

	cmd.Flags().Int64Var(&tileX, "x", 0, "tile coordinate along dimension 0")
	cmd.Flags().Int64Var(&tileY, "y", 0, "tile coordinate along dimension 1")
	cmd.Flags().StringVar(&outPath, "out", "tile.png", "output PNG path")
	cmd.Flags().StringVar(&colormapName, "colormap", "viridis", "colormap name")

	return cmd
}

func decodeFloat32Cell(b []byte) float32 {
	return float32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}
