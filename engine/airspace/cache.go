package airspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const cacheVersion = 1

type cachedZones struct {
	Version int       `msgpack:"version"`
	Bounds  Bounds    `msgpack:"bounds"`
	Fetched time.Time `msgpack:"fetched"`
	Zones   []Zone    `msgpack:"zones"`
}

// Snapshot is a set of zones fetched for a query rectangle.
type Snapshot struct {
	Bounds  Bounds
	Fetched time.Time
	Zones   []Zone
}

// Encode writes a snapshot as zstd-compressed msgpack.
func Encode(w io.Writer, s Snapshot) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	obj := cachedZones{Version: cacheVersion, Bounds: s.Bounds, Fetched: s.Fetched, Zones: s.Zones}
	if err := msgpack.NewEncoder(zw).Encode(obj); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode airspace zones: %w", err)
	}
	return zw.Close()
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (Snapshot, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var obj cachedZones
	if err := msgpack.NewDecoder(zr).Decode(&obj); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode airspace zones: %w", err)
	}
	if obj.Version != cacheVersion {
		return Snapshot{}, fmt.Errorf("unsupported airspace cache version %d", obj.Version)
	}
	return Snapshot{Bounds: obj.Bounds, Fetched: obj.Fetched, Zones: obj.Zones}, nil
}

// SaveFile stores a snapshot at path, creating parent directories.
func SaveFile(path string, s Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a snapshot stored by SaveFile. Snapshots older than maxAge are
// rejected with os.ErrNotExist so callers treat them as a cache miss; a zero maxAge
// accepts any age.
func LoadFile(path string, maxAge time.Duration) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return Snapshot{}, err
	}
	if maxAge > 0 && time.Since(s.Fetched) > maxAge {
		return Snapshot{}, fmt.Errorf("airspace cache %s is stale: %w", path, os.ErrNotExist)
	}
	return s, nil
}
