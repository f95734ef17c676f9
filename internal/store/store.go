package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"artisan-voice-go/internal/logger"
	"artisan-voice-go/internal/types"
)

// Store persists one immutable JSON document per listing id. Writes go to a
// temp file first and are renamed into place, so a concurrent reader never
// sees a half-written record.
type Store struct {
	fs  afero.Fs
	dir string
	log *logrus.Entry
}

func New(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{fs: fs, dir: dir, log: logger.WithComponent("store")}, nil
}

// Assemble merges the pipeline outputs into the record that gets persisted.
func Assemble(id, transcript string, content types.StructuredContent, audioPath string) types.ListingRecord {
	return types.ListingRecord{
		ID:         id,
		Transcript: transcript,
		Content:    content,
		AudioPath:  audioPath,
	}
}

// Persist writes the record atomically and returns its path. Records are
// never updated in place; persisting an id twice is a caller bug.
func (s *Store) Persist(rec types.ListingRecord) (string, error) {
	if rec.ID == "" {
		return "", fmt.Errorf("persist: record has no id")
	}
	final := s.path(rec.ID)
	if ok, _ := afero.Exists(s.fs, final); ok {
		return "", fmt.Errorf("persist: record %s already exists", rec.ID)
	}

	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return "", fmt.Errorf("persist: marshal: %w", err)
	}

	tmp := final + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("persist: write temp: %w", err)
	}
	if err := s.fs.Rename(tmp, final); err != nil {
		_ = s.fs.Remove(tmp)
		return "", fmt.Errorf("persist: rename: %w", err)
	}
	s.log.WithField("record_id", rec.ID).WithField("path", final).Info("record persisted")
	return final, nil
}

func (s *Store) Load(id string) (types.ListingRecord, error) {
	data, err := afero.ReadFile(s.fs, s.path(id))
	if err != nil {
		return types.ListingRecord{}, fmt.Errorf("load %s: %w", id, err)
	}
	var rec types.ListingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.ListingRecord{}, fmt.Errorf("load %s: decode: %w", id, err)
	}
	return rec, nil
}

// List returns every persisted record, ordered by id for stable output.
func (s *Store) List() ([]types.ListingRecord, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	var out []types.ListingRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rec, err := s.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			s.log.WithField("file", e.Name()).WithError(err).Warn("skipping unreadable record")
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
