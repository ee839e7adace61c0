package clips

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/audiolibrelab/soundboard/internal/audio"
	"github.com/audiolibrelab/soundboard/internal/config"
)

// Clip is a bundled sound that can be played once.
type Clip struct {
	Label     string
	Reference audio.Reference
}

// Catalog is the fixed list of bundled clips, in configuration order.
type Catalog struct {
	clips   []Clip
	byLabel map[string]int
}

// Load builds the catalog from configured clips. Clips whose file is
// missing or has an unsupported extension are skipped with a warning.
func Load(defs []config.Clip, extensions []string) (*Catalog, error) {
	c := &Catalog{byLabel: make(map[string]int, len(defs))}

	for _, def := range defs {
		if _, dup := c.byLabel[def.Label]; dup {
			return nil, fmt.Errorf("duplicate clip label %q", def.Label)
		}

		if !hasSupportedExtension(def.Path, extensions) {
			slog.Warn("Skipping clip with unsupported extension", "label", def.Label, "path", def.Path)
			continue
		}

		info, err := os.Stat(def.Path)
		if err != nil {
			slog.Warn("Skipping unreadable clip", "label", def.Label, "path", def.Path, "error", err)
			continue
		}
		if info.IsDir() {
			slog.Warn("Skipping clip that is a directory", "label", def.Label, "path", def.Path)
			continue
		}

		c.byLabel[def.Label] = len(c.clips)
		c.clips = append(c.clips, Clip{Label: def.Label, Reference: audio.FileReference(def.Path)})
	}

	slog.Debug("Clip catalog loaded", "clips", len(c.clips), "configured", len(defs))
	return c, nil
}

func hasSupportedExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return false
	}
	for _, e := range extensions {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

// List returns a copy of the clips.
func (c *Catalog) List() []Clip {
	return append([]Clip(nil), c.clips...)
}

func (c *Catalog) Len() int {
	return len(c.clips)
}

// Lookup finds a clip by label, or by its 1-based position when key is a
// number that is not itself a label.
func (c *Catalog) Lookup(key string) (Clip, bool) {
	if i, ok := c.byLabel[key]; ok {
		return c.clips[i], true
	}

	n, err := strconv.Atoi(key)
	if err != nil || n < 1 || n > len(c.clips) {
		return Clip{}, false
	}
	return c.clips[n-1], true
}
