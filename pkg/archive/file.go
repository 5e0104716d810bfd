package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/labelbench/pkg/observability"
)

// FileStore keeps one JSON file per run.
// Files are spread over subdirectories keyed by the id hash.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, wrap(err, "create archive directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Put stores rec as JSON.
func (s *FileStore) Put(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return wrap(err, "encode run %s", rec.ID)
	}

	path := s.path(rec.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return wrap(err, "store run %s", rec.ID)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return wrap(err, "store run %s", rec.ID)
	}
	observability.Archive().OnArchivePut(ctx, BackendFile, len(data))
	return nil
}

// Get reads the run with the given id.
func (s *FileStore) Get(ctx context.Context, id string) (Record, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		observability.Archive().OnArchiveMiss(ctx, BackendFile)
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, wrap(err, "read run %s", id)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, wrap(err, "decode run %s", id)
	}
	observability.Archive().OnArchiveHit(ctx, BackendFile)
	return rec, nil
}

// List reads every stored run and returns them newest first.
// Unreadable entries are skipped.
func (s *FileStore) List(ctx context.Context, limit int) ([]Record, error) {
	var recs []Record
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var rec Record
		if json.Unmarshal(data, &rec) == nil {
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "list runs in %s", s.dir)
	}

	sortNewestFirst(recs)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Close does nothing for file store.
func (s *FileStore) Close() error {
	return nil
}

// path converts a run id to a file path.
// The first two hash characters select a subdirectory.
func (s *FileStore) path(id string) string {
	sum := sha256.Sum256([]byte(id))
	hash := hex.EncodeToString(sum[:])
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

func sortNewestFirst(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
