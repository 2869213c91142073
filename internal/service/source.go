package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// Datasets a source file can load into.
const (
	DatasetHex    = "hex"
	DatasetPlaces = "places"
)

// ErrUnknownDataset is returned when a file cannot be matched to a table.
var ErrUnknownDataset = eris.New("unknown dataset")

// SourceService manages the GeoJSON files under <data>/sources.
type SourceService struct {
	sourcesDir string
	features   *FeatureService
}

// NewSourceService creates a new source service.
func NewSourceService(dataDir string, features *FeatureService) *SourceService {
	return &SourceService{
		sourcesDir: filepath.Join(dataDir, "sources"),
		features:   features,
	}
}

// DatasetFor picks the table for a file name: hexagon files contain "hex",
// every other GeoJSON file holds places.
func DatasetFor(name string) (string, error) {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	if ext != ".geojson" && ext != ".json" {
		return "", eris.Wrapf(ErrUnknownDataset, "%s: not a GeoJSON file", name)
	}
	if strings.Contains(lower, "hex") {
		return DatasetHex, nil
	}
	return DatasetPlaces, nil
}

// List returns the loadable files in the sources directory.
func (s *SourceService) List() ([]DatasetFile, error) {
	entries, err := os.ReadDir(s.sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []DatasetFile{}, nil
		}
		return nil, eris.Wrap(err, "read sources directory")
	}

	files := []DatasetFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		dataset, err := DatasetFor(entry.Name())
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, DatasetFile{
			Name:    entry.Name(),
			Size:    formatSize(info.Size()),
			Dataset: dataset,
		})
	}
	return files, nil
}

// LoadAll imports every file in the sources directory.
func (s *SourceService) LoadAll(ctx context.Context) (map[string]int, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	loaded := make(map[string]int, len(files))
	for _, f := range files {
		n, err := s.LoadFile(ctx, filepath.Join(s.sourcesDir, f.Name))
		if err != nil {
			return loaded, err
		}
		loaded[f.Name] = n
	}
	return loaded, nil
}

// LoadFile imports one GeoJSON FeatureCollection and returns the number of
// features stored.
func (s *SourceService) LoadFile(ctx context.Context, path string) (int, error) {
	dataset, err := DatasetFor(filepath.Base(path))
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "read %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return 0, eris.Wrapf(err, "parse %s", path)
	}

	if dataset == DatasetHex {
		return s.features.ImportHexes(ctx, fc)
	}
	return s.features.ImportPlaces(ctx, fc)
}

// SourcesDir returns the path to the sources directory.
func (s *SourceService) SourcesDir() string {
	return s.sourcesDir
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
