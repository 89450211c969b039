package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FileStore persists the station map as a JSON file. Keys are serialized as
// strings for JSON compatibility and converted back to int64 on load.
type FileStore struct {
	path string
}

// NewFileStore constructs a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the station map from disk. A missing file yields an empty map.
func (f *FileStore) Load(_ context.Context) (map[int64]Station, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int64]Station{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}

	var raw map[string]Station
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}

	stations := make(map[int64]Station, len(raw))
	for key, st := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing user id %q in %s: %w", key, f.path, err)
		}
		stations[id] = st
	}
	return stations, nil
}

// Save writes the whole station map, replacing the previous contents. The
// write goes through a temp file and rename so a crash mid-write cannot
// leave a truncated store behind.
func (f *FileStore) Save(_ context.Context, stations map[int64]Station) error {
	raw := make(map[string]Station, len(stations))
	for id, st := range stations {
		raw[strconv.FormatInt(id, 10)] = st
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling station settings: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}
