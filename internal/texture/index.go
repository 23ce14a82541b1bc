package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// Location says where a texture's bytes live: an archive entry name or a
// loose file path.
type Location struct {
	Entry string
	Path  string
}

// Index maps lowercase texture stems to archive entries and override files.
// Loose files in an override directory take priority over archive entries
// for the same stem.
type Index struct {
	entries map[string]Location // stem.lower() → location
}

// Lister is the subset of an archive an Index is built from.
type Lister interface {
	Filenames(ext string) []string
}

// BuildIndex indexes every XBMP entry of the archive.
func BuildIndex(a Lister) *Index {
	idx := &Index{entries: make(map[string]Location)}
	if a == nil {
		return idx
	}
	for _, name := range a.Filenames("xbmp") {
		stem := stemOf(name)
		if _, exists := idx.entries[stem]; !exists {
			idx.entries[stem] = Location{Entry: name}
		}
	}
	return idx
}

// AddDir indexes TGA, PNG and JPEG files under dir as overrides.
func (idx *Index) AddDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".tga", ".png", ".jpg", ".jpeg":
			idx.entries[stemOf(path)] = Location{Path: path}
		}
		return nil
	})
}

// Lookup returns where a texture name is stored, or (Location{}, false).
func (idx *Index) Lookup(texName string) (Location, bool) {
	loc, ok := idx.entries[stemOf(texName)]
	return loc, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// stemOf strips directories and every extension:
// "C:\ART\Crate_01.TGA.XBMP" → "crate_01".
func stemOf(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	stem, _, _ := strings.Cut(filepath.Base(name), ".")
	return strings.ToLower(stem)
}
