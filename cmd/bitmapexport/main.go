package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"

	"a51-asset-decoder/internal/batch"
	"a51-asset-decoder/internal/config"
	"a51-asset-decoder/internal/dfs"
	"a51-asset-decoder/internal/postprocess"
	"a51-asset-decoder/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	gameRoot := flag.String("game", "", "Path to game root (default: auto-detect)")
	levelName := flag.String("level", "", "Campaign level whose RESOURCE archive is exported")
	archive := flag.String("dfs", "", "Archive base path, overrides -level (without .DFS)")
	outputDir := flag.String("output", "", "Output directory (default: out/<level>)")
	format := flag.String("format", "", "Output format: webp or tga (default: webp)")
	maxSize := flag.Int("max", 0, "Downsample bitmaps larger than this (default: 1024)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	testN := flag.Int("test", 0, "Export only first N bitmaps for testing")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		GameRoot:  *gameRoot,
		Level:     *levelName,
		OutputDir: *outputDir,
		Format:    *format,
		MaxSize:   *maxSize,
		Workers:   *workers,
	})
	if *archive != "" {
		cfg.Resource = *archive
	}

	if cfg.Resource == "" {
		fmt.Fprintln(os.Stderr, "Error: no archive. Use -level with a game root, -dfs or config.json.")
		os.Exit(1)
	}

	arc, err := dfs.OpenFile(cfg.Resource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening archive: %v\n", err)
		os.Exit(1)
	}

	names := arc.Filenames("xbmp")
	if *testN > 0 && *testN < len(names) {
		names = names[:*testN]
	}
	if len(names) == 0 {
		fmt.Println("No bitmaps to export.")
		os.Exit(0)
	}

	// Build texture index
	texIndex := texture.BuildIndex(arc)
	if cfg.TextureDir != "" {
		if err := texIndex.AddDir(cfg.TextureDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: texture overrides: %v\n", err)
		}
	}
	texCache := texture.NewCache(texIndex, arc)
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	fmt.Printf("Area51 bitmap export → %s\n", strings.ToUpper(cfg.Format))
	fmt.Printf("Bitmaps: %d, Workers: %d\n", len(names), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()

	results := batch.Run(batch.Options{Workers: cfg.Workers, Progress: os.Stdout}, names, func(name string) batch.Result {
		return exportBitmap(texCache, name, cfg)
	})

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	failed := batch.Failed(results)
	fmt.Printf("Exported: %d/%d\n", len(results)-len(failed), len(names))

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		limit := min(20, len(failed))
		for _, e := range failed[:limit] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}

// exportName is the lowercased entry stem with brackets replaced.
func exportName(entry, format string) string {
	stem := strings.ToLower(filepath.Base(entry))
	stem = strings.TrimSuffix(stem, ".xbmp")
	stem = strings.NewReplacer("[", "_", "]", "_").Replace(stem)
	return stem + "." + format
}

func exportBitmap(cache *texture.Cache, name string, cfg config.Config) batch.Result {
	r := batch.Result{Name: name}
	img, err := cache.Load(name)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	if img == nil {
		r.Error = "not indexed"
		return r
	}
	img = postprocess.Downsample(img, cfg.MaxSize)

	r.Output = exportName(name, cfg.Format)
	b := img.Bounds()
	r.Width, r.Height = b.Dx(), b.Dy()
	if err := writeImage(filepath.Join(cfg.OutputDir, r.Output), img, cfg.Format); err != nil {
		r.Error = err.Error()
		return r
	}
	r.Success = true
	return r
}

func writeImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if format == "tga" {
		err = tga.Encode(f, img)
	} else {
		err = nativewebp.Encode(f, img, nil)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
