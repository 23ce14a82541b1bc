package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Config holds game paths and export settings.
type Config struct {
	// Paths
	GameRoot   string `json:"game_root"`
	Level      string `json:"level"`
	LevelDFS   string `json:"level_dfs"`
	Resource   string `json:"resource_dfs"`
	TextureDir string `json:"texture_dir"`
	OutputDir  string `json:"output_dir"`

	// Export settings
	Format  string `json:"format"` // webp or tga
	MaxSize int    `json:"max_size"`
	Workers int    `json:"workers"`
	Zstd    bool   `json:"zstd"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	GameRoot  string
	Level     string
	OutputDir string
	Format    string
	MaxSize   int
	Workers   int
	Zstd      bool
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.GameRoot != "" {
		c.GameRoot = flags.GameRoot
	}
	if flags.Level != "" {
		c.Level = flags.Level
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.MaxSize > 0 {
		c.MaxSize = flags.MaxSize
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Zstd {
		c.Zstd = true
	}

	if c.GameRoot == "" {
		c.GameRoot = detectGameRoot()
	}
	c.Level = strings.ToUpper(c.Level)

	if c.GameRoot != "" {
		if c.Level != "" {
			levelDir := filepath.Join(c.GameRoot, "LEVELS", "CAMPAIGN", c.Level)
			c.LevelDFS = c.rooted(c.LevelDFS, filepath.Join(levelDir, "LEVEL"))
			c.Resource = c.rooted(c.Resource, filepath.Join(levelDir, "RESOURCE"))
		}
		if c.TextureDir != "" && !filepath.IsAbs(c.TextureDir) {
			c.TextureDir = filepath.Join(c.GameRoot, c.TextureDir)
		}
	}

	if c.OutputDir == "" {
		name := "export"
		if c.Level != "" {
			name = strings.ToLower(c.Level)
		}
		c.OutputDir = filepath.Join("out", name)
	}

	c.Format = strings.ToLower(c.Format)
	if c.Format != "tga" {
		c.Format = "webp"
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 1024
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// rooted returns def when p is empty and resolves relative p against the
// game root.
func (c *Config) rooted(p, def string) string {
	if p == "" {
		return def
	}
	if !filepath.IsAbs(p) {
		return filepath.Join(c.GameRoot, p)
	}
	return p
}

// Levels lists the campaign level directories under the game root.
func (c *Config) Levels() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(c.GameRoot, "LEVELS", "CAMPAIGN"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func detectGameRoot() string {
	var candidates []string
	if exe, _ := os.Executable(); exe != "" {
		dir := filepath.Dir(exe)
		candidates = append(candidates, dir, filepath.Dir(dir))
	}
	if cwd, _ := os.Getwd(); cwd != "" {
		candidates = append(candidates, cwd, filepath.Dir(cwd))
	}
	for _, base := range candidates {
		if isGameRoot(base) {
			return base
		}
	}
	return ""
}

func isGameRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "LEVELS"))
	return err == nil && info.IsDir()
}
