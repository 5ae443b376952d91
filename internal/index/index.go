/*
Package index aggregates the cached daily records into the static artefacts
consumed by the search front-end.
*/
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/shanehull/regscraper/internal/cache"
	"github.com/shanehull/regscraper/internal/logger"
	"github.com/shanehull/regscraper/internal/types"
)

const (
	SearchDataFile = "search-data.json"
	ManifestFile   = "file-manifest.json"
	MetadataFile   = "metadata.json"
)

var courtPrefix = regexp.MustCompile(`(?i)Amtsgericht\s`)

// Entry is the reduced announcement the search front-end indexes.
type Entry struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Reg   string `json:"reg,omitempty"`
	Seat  string `json:"seat,omitempty"`
	Court string `json:"court"`
	Type  string `json:"type"`
	Date  string `json:"date"`
	File  string `json:"file"`
}

// Metadata describes the generated index.
type Metadata struct {
	TotalAnnouncements int     `json:"totalAnnouncements"`
	OldestDate         *string `json:"oldestDate"`
	LatestDateWithData *string `json:"latestDateWithData"`
	Checksum           string  `json:"checksum"`
}

// Builder writes the index of a file cache into a public directory.
type Builder struct {
	store     *cache.FileStore
	publicDir string
	log       logger.Interface
}

func NewBuilder(store *cache.FileStore, publicDir string, log logger.Interface) *Builder {
	return &Builder{store: store, publicDir: publicDir, log: log.WithComponent("index")}
}

// Build reads every cached record, newest first, and writes the search data,
// the file manifest and the metadata. Unreadable records are logged and skipped.
func (b *Builder) Build(ctx context.Context) (*Metadata, error) {
	days, err := b.store.List()
	if err != nil {
		return nil, err
	}
	b.log.Info("Found daily data files", "count", len(days))

	files := make([]string, 0, len(days))
	entries := []Entry{}

	for i := len(days) - 1; i >= 0; i-- {
		day := days[i]
		file := filepath.ToSlash(b.store.Path(day))
		files = append(files, file)

		rec, err := b.store.Read(ctx, day)
		if err != nil {
			b.log.Error("Failed to read daily record", "file", file, "error", err)
			continue
		}

		for _, a := range rec.Announcements {
			entries = append(entries, toEntry(a, file))
		}
	}
	b.log.Info("Aggregated searchable entries", "count", len(entries))

	searchData, err := marshal(entries)
	if err != nil {
		return nil, err
	}
	manifest, err := marshal(files)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		TotalAnnouncements: len(entries),
		Checksum:           fmt.Sprintf("%016x", xxh3.Hash(searchData)),
	}
	if len(days) > 0 {
		oldest := days[0].Format(types.DateLayout)
		meta.OldestDate = &oldest
	}
	if len(entries) > 0 {
		latest := entries[0].Date
		meta.LatestDateWithData = &latest
	}
	metadata, err := marshal(meta)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(b.publicDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", b.publicDir, err)
	}
	for name, data := range map[string][]byte{
		MetadataFile:   metadata,
		SearchDataFile: searchData,
		ManifestFile:   manifest,
	} {
		path := filepath.Join(b.publicDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	b.log.Info("Search index written",
		"dir", b.publicDir,
		"search_data_mb", fmt.Sprintf("%.2f", float64(len(searchData))/(1024*1024)),
		"checksum", meta.Checksum,
	)

	return meta, nil
}

func toEntry(a types.Announcement, file string) Entry {
	e := Entry{
		ID:    a.ID,
		Name:  a.CompanyName,
		Court: strings.TrimSpace(courtPrefix.ReplaceAllString(a.Amtsgericht, "")),
		Type:  a.Type,
		Date:  a.Date,
		File:  file,
	}
	if std, ok := a.Register.(types.StandardRegister); ok {
		e.Reg = std.Registernummer
		e.Seat = std.CompanySeat
	}
	return e
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal index data: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
