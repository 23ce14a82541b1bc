package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"a51-asset-decoder/internal/dfs"
	"a51-asset-decoder/internal/export"
	"a51-asset-decoder/internal/geom"
	"a51-asset-decoder/internal/mathutil"
	"a51-asset-decoder/internal/raster"
	"a51-asset-decoder/internal/texture"
)

func main() {
	archive := flag.String("dfs", "", "Resource archive base path (without .DFS); reads a loose file when empty")
	preview := flag.String("preview", "", "Render a textured preview to this .webp file")
	previewSize := flag.Int("size", 512, "Preview size in pixels")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: inspect [-dfs RESOURCE] [-preview OUT.webp] NAME.RIGIDGEOM")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	name := flag.Arg(0)

	var data []byte
	var err error
	var res texture.Resolver
	if *archive != "" {
		var arc *dfs.Archive
		if arc, err = dfs.OpenFile(*archive); err == nil {
			data, err = arc.Get(strings.ToUpper(name))
			res = texture.NewCache(texture.BuildIndex(arc), arc)
		}
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	rg, err := geom.DecodeRigid(data)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	g := rg.Geom
	fmt.Printf("Platform: %d, Version: %d\n", g.Platform, g.Version)
	fmt.Printf("BBox: %v\n", g.BBox)
	fmt.Printf("Meshes: %d, SubMeshes: %d, Materials: %d, Textures: %d, DLists: %d\n",
		len(g.Meshes), len(g.SubMeshes), len(g.Materials), len(g.Textures), len(rg.DLists))
	for i, t := range g.Textures {
		fmt.Printf("  Texture[%d]: %q (%s)\n", i, t.Filename, t.Description)
	}
	if !rg.IsValid() {
		fmt.Println("Draw lists not decoded for this platform.")
		return
	}

	for _, m := range g.Meshes {
		lo, hi := m.SubMeshRange()
		fmt.Printf("  Mesh %q: submeshes [%d, %d), faces=%d, verts=%d\n", m.Name, lo, hi, m.NumFaces, m.NumVertices)
	}

	for i, dl := range rg.DLists {
		fmt.Printf("  DList[%d]: verts=%d, indices=%d, bone=%d\n", i, len(dl.Vertices), len(dl.Indices), dl.BoneIndex)
		mesh, err := export.FlattenDList(dl)
		if err != nil {
			fmt.Printf("    Error: %v\n", err)
			continue
		}
		if len(mesh.Positions) == 0 {
			continue
		}
		box := mathutil.BBox{Min: mesh.Positions[0], Max: mesh.Positions[0]}
		for _, p := range mesh.Positions[1:] {
			box = box.Extend(p)
		}
		size := box.Size()
		fmt.Printf("    BBox: %v\n", box)
		fmt.Printf("    Size: %.1f x %.1f x %.1f\n", size[0], size[1], size[2])

		// Surface area by dominant normal direction
		areaByDir := map[string]float32{}
		degenerate := 0
		for _, f := range mesh.Faces {
			v0, v1, v2 := mesh.Positions[f[0]], mesh.Positions[f[1]], mesh.Positions[f[2]]
			n := v1.Sub(v0).Cross(v2.Sub(v0))
			area := 0.5 * n.Len()
			if area == 0 {
				degenerate++
				continue
			}
			areaByDir[direction(n)] += area
		}
		fmt.Println("    --- Surface area by direction ---")
		for _, d := range []string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"} {
			fmt.Printf("    %s: %.1f sq units\n", d, areaByDir[d])
		}
		if degenerate > 0 {
			fmt.Printf("    Degenerate triangles: %d\n", degenerate)
		}

		uvMin, uvMax := mgl32.Vec2{math32.Inf(1), math32.Inf(1)}, mgl32.Vec2{math32.Inf(-1), math32.Inf(-1)}
		for _, uv := range mesh.UVs {
			for k := 0; k < 2; k++ {
				uvMin[k] = math32.Min(uvMin[k], uv[k])
				uvMax[k] = math32.Max(uvMax[k], uv[k])
			}
		}
		fmt.Printf("    UV range: (%.3f,%.3f)..(%.3f,%.3f)\n", uvMin[0], uvMin[1], uvMax[0], uvMax[1])
	}

	if *preview != "" {
		parts, err := export.Parts(name, rg)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		img := raster.Render(parts, res, *previewSize, 2)
		if err := writeWebP(*preview, img); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Preview: %s\n", *preview)
	}
}

func writeWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func direction(n mgl32.Vec3) string {
	ax, ay, az := math32.Abs(n[0]), math32.Abs(n[1]), math32.Abs(n[2])
	switch {
	case ax >= ay && ax >= az:
		if n[0] > 0 {
			return "+X"
		}
		return "-X"
	case ay >= az:
		if n[1] > 0 {
			return "+Y"
		}
		return "-Y"
	default:
		if n[2] > 0 {
			return "+Z"
		}
		return "-Z"
	}
}
