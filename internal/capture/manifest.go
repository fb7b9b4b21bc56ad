package capture

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one frame in the output manifest.
type ManifestEntry struct {
	Frame   int     `json:"frame"`
	Elapsed float64 `json:"elapsed"`
	Image   string  `json:"image"`
	Error   string  `json:"error,omitempty"`
}

// WriteManifest writes manifest.json describing every captured frame.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Frame:   r.Frame,
			Elapsed: r.Elapsed,
			Image:   r.Image,
			Error:   r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
