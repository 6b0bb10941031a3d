package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
)

// ManifestEntry describes one rendered chart for the document renderer.
type ManifestEntry struct {
	Order   int    `json:"order"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Caption string `json:"caption"`
	Kind    string `json:"kind"`
	Image   string `json:"image"`           // relative to the manifest
	Sheet   string `json:"sheet,omitempty"` // workbook sheet, when a workbook was written
}

// Manifest lists the charts of one build in report order.
type Manifest struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Source      string          `json:"source"`
	Rows        int             `json:"rows"`
	Workbook    string          `json:"workbook,omitempty"`
	Charts      []ManifestEntry `json:"charts"`
}

// Write stores m as indented JSON at path.
func (m *Manifest) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	return nil
}

// ReadManifest loads a manifest written by Write.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrIO, path, err)
	}
	return &m, nil
}

// relativeTo returns target relative to the directory of base, or target
// itself when no relative path exists.
func relativeTo(base, target string) string {
	rel, err := filepath.Rel(filepath.Dir(base), target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}
