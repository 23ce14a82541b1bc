package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DataDog/zstd"

	"a51-asset-decoder/internal/config"
	"a51-asset-decoder/internal/dfs"
	"a51-asset-decoder/internal/export"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	gameRoot := flag.String("game", "", "Path to game root (default: auto-detect)")
	levelName := flag.String("level", "", "Campaign level to dump, e.g. HANGAR")
	levels := flag.Bool("levels", false, "List campaign levels and exit")
	list := flag.Bool("list", false, "List archive entries")
	describe := flag.Bool("describe", true, "Print playsurface, level and geometry summaries")
	jsonOut := flag.String("json", "", "Write the decoded scene as JSON to this file")
	compress := flag.Bool("zstd", false, "Compress the JSON dump with zstd")
	outputDir := flag.String("output", "", "Output directory for relative -json paths (default: out/<level>)")

	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		GameRoot:  *gameRoot,
		Level:     *levelName,
		OutputDir: *outputDir,
		Zstd:      *compress,
	})

	if *levels {
		names, err := cfg.Levels()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	if cfg.LevelDFS == "" {
		fmt.Fprintln(os.Stderr, "Error: no level. Use -level with -game or config.json.")
		os.Exit(1)
	}

	levelArc, err := dfs.OpenFile(cfg.LevelDFS)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening level archive: %v\n", err)
		os.Exit(1)
	}
	var resource export.Archive
	if resArc, err := dfs.OpenFile(cfg.Resource); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: resource archive: %v\n", err)
	} else {
		resource = resArc
		if *list {
			fmt.Printf("== %s.DFS ==\n", cfg.Resource)
			resArc.Describe(os.Stdout)
		}
	}
	if *list {
		fmt.Printf("== %s.DFS ==\n", cfg.LevelDFS)
		levelArc.Describe(os.Stdout)
	}

	scene, err := export.LoadScene(levelArc, resource, log.New(os.Stderr, "", 0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *describe {
		describeScene(scene)
	}

	if *jsonOut != "" {
		path := *jsonOut
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.OutputDir, path)
		}
		level := 0
		if cfg.Zstd {
			level = zstd.DefaultCompression
			if !strings.HasSuffix(path, ".zst") {
				path += ".zst"
			}
		}
		if err := writeJSON(path, scene, level); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("JSON: %s\n", path)
	}

	if len(scene.Failed) > 0 {
		os.Exit(1)
	}
}

func writeJSON(path string, scene *export.Scene, level int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	jw := export.NewJSONWriter(f, level, level == 0)
	if err := export.Run(jw, scene); err != nil {
		f.Close()
		return err
	}
	if err := jw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func describeScene(s *export.Scene) {
	fmt.Println("------------------------------------------------------------")
	fmt.Println("Playsurface")
	s.Playsurface.Describe(os.Stdout)

	if ps := s.PlayerStart; ps != nil {
		fmt.Printf("Player start: (%.1f, %.1f, %.1f) pitch=%.3f yaw=%.3f\n",
			ps.Position[0], ps.Position[1], ps.Position[2], ps.Pitch, ps.Yaw)
	}

	lvl := s.Level
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Level version %d: %d objects, %d properties\n", lvl.Version, len(lvl.Objects), len(lvl.Properties))
	byType := map[string]int{}
	for _, o := range lvl.Objects {
		byType[o.TypeName]++
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-32s %d\n", t, byType[t])
	}

	doors := lvl.ObjectsOfType("Door")
	if len(doors) > 0 {
		fmt.Printf("Doors (%d):\n", len(doors))
	}
	for _, d := range doors {
		pos, _ := d.Position()
		rot, _ := d.Rotation()
		file, _ := d.Text(export.GeomProperty)
		fmt.Printf("  %016x %s pos=(%.1f, %.1f, %.1f) rot=(%.3f, %.3f, %.3f)\n",
			d.GUID, file, pos[0], pos[1], pos[2], rot.Pitch, rot.Roll, rot.Yaw)
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Geometries: %d decoded, %d failed\n", len(s.Geoms), len(s.Failed))
	for _, ng := range s.Geoms {
		g := ng.Geom.Geom
		fmt.Printf("  %-40s meshes=%d submeshes=%d dlists=%d textures=%d\n",
			ng.Name, len(g.Meshes), len(g.SubMeshes), len(ng.Geom.DLists), len(g.Textures))
	}
	if len(s.Failed) > 0 {
		names := make([]string, 0, len(s.Failed))
		for n := range s.Failed {
			names = append(names, n)
		}
		sort.Strings(names)
		limit := min(20, len(names))
		fmt.Printf("\nFailed (%d):\n", len(names))
		for _, n := range names[:limit] {
			fmt.Printf("  %s: %v\n", n, s.Failed[n])
		}
	}
}
