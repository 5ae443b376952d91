/*
Package cache persists one DailyRecord per calendar date.
*/
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shanehull/regscraper/internal/types"
)

const (
	filePrefix = "registerbekanntmachungen-"
	fileSuffix = ".json"
	monthDir   = "2006-01"
)

// ErrNotFound is returned by Read when no record exists for a date.
var ErrNotFound = errors.New("record not found")

// Store maps calendar dates to their DailyRecord. Write replaces the whole
// record; a partially written record is never visible to Read.
type Store interface {
	Exists(ctx context.Context, day time.Time) (bool, error)
	Read(ctx context.Context, day time.Time) (*types.DailyRecord, error)
	Write(ctx context.Context, day time.Time, rec *types.DailyRecord) error
}

// FileStore keeps one pretty-printed JSON document per date below root:
// <root>/<YYYY-MM>/registerbekanntmachungen-<YYYY-MM-DD>.json
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Root returns the directory the store writes to.
func (s *FileStore) Root() string {
	return s.root
}

// Path returns the file a record for day is stored in.
func (s *FileStore) Path(day time.Time) string {
	return filepath.Join(s.root, day.Format(monthDir), filePrefix+day.Format(types.DateLayout)+fileSuffix)
}

func (s *FileStore) Exists(_ context.Context, day time.Time) (bool, error) {
	_, err := os.Stat(s.Path(day))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", s.Path(day), err)
}

func (s *FileStore) Read(_ context.Context, day time.Time) (*types.DailyRecord, error) {
	path := s.Path(day)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", day.Format(types.DateLayout), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var rec types.DailyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return &rec, nil
}

// Write stores rec through a temporary file in the target directory that is
// renamed over the destination.
func (s *FileStore) Write(_ context.Context, day time.Time, rec *types.DailyRecord) error {
	path := s.Path(day)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move record into place at %s: %w", path, err)
	}

	return nil
}

// List returns every cached date in ascending order.
func (s *FileStore) List() ([]time.Time, error) {
	var days []time.Time

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			return nil
		}

		day, err := time.Parse(types.DateLayout, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
		if err != nil {
			return nil
		}
		days = append(days, day)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list cache %s: %w", s.root, err)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

func marshalRecord(rec *types.DailyRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("failed to marshal record for %s: %w", rec.Date, err)
	}
	return buf.Bytes(), nil
}
