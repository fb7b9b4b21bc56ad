package texture

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Index maps lowercase texture stems to filesystem paths.
// Directories scanned earlier win over later ones for the same stem.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans each asset dir and its subdirectories for decodable images.
// Missing directories are skipped.
func BuildIndex(dirs ...string) *Index {
	idx := &Index{entries: make(map[string]string)}

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !Supported(path) {
				return nil
			}
			stem := stemOf(path)
			if _, exists := idx.entries[stem]; !exists {
				idx.entries[stem] = path
			}
			return nil
		})
	}

	return idx
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
// Names that point at an existing file resolve to themselves.
func (idx *Index) ResolvePath(texName string) (string, bool) {
	if info, err := os.Stat(texName); err == nil && !info.IsDir() {
		return texName, true
	}
	path, ok := idx.entries[stemOf(texName)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}

func stemOf(name string) string {
	// Strip any path prefix (e.g. "assets\\sample.png" → "sample")
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
