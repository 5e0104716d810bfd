// Package dataset reads benchmark datasets from disk.
//
// # Layout
//
// A dataset is a directory under the input root holding a list file and the
// images it names:
//
//	input/
//	  mirflickr/
//	    files.txt
//	    im1.png
//	    im2.png
//
// files.txt holds one relative file name per line. Carriage returns are
// stripped and blank lines are ignored.
//
// # Naming Contract
//
// Datasets that want bucketed statistics name their images with three
// leading digits: the first is the size class, the second the density class.
// See [Buckets].
//
// # Presence
//
// Every listed file starts out present. A file that fails to load is marked
// missing the first time and stays missing for the rest of the test, so it is
// excluded from every average and written as an absent row.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/labelbench/pkg/errors"
)

// ListFile is the name of the per-dataset file list.
const ListFile = "files.txt"

// FileRecord is one entry of a dataset's file list.
type FileRecord struct {
	Name    string
	Present bool
}

// Dataset is an ordered file list rooted at Dir.
type Dataset struct {
	Name  string
	Dir   string
	Files []FileRecord
}

// Source opens datasets by name.
type Source interface {
	Open(name string) (*Dataset, error)
}

// DirSource opens datasets stored as directories under Root.
type DirSource struct {
	Root string
}

var _ Source = DirSource{}

// Open reads Root/name/files.txt.
//
// Errors carry ErrCodeInvalidName for unsafe dataset names and
// ErrCodeDatasetUnreadable when the list cannot be read.
func (s DirSource) Open(name string) (*Dataset, error) {
	if err := errors.ValidateDatasetName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.Root, name)
	path := filepath.Join(dir, ListFile)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasetUnreadable, err, "unable to open %s", path)
	}
	defer f.Close()

	files, err := ReadList(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatasetUnreadable, err, "read %s", path)
	}
	return &Dataset{Name: name, Dir: dir, Files: files}, nil
}

// ReadList decodes a file list from r.
//
// Entries that would escape the dataset directory are kept in order but
// start out missing, so they never reach a loader.
func ReadList(r io.Reader) ([]FileRecord, error) {
	var files []FileRecord
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		name := strings.ReplaceAll(sc.Text(), "\r", "")
		if strings.TrimSpace(name) == "" {
			continue
		}
		files = append(files, FileRecord{
			Name:    name,
			Present: errors.ValidateImagePath(name) == nil,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return files, nil
}

// New builds an in-memory dataset whose files all start out present.
func New(name, dir string, names ...string) *Dataset {
	files := make([]FileRecord, len(names))
	for i, n := range names {
		files[i] = FileRecord{Name: n, Present: true}
	}
	return &Dataset{Name: name, Dir: dir, Files: files}
}

// Len returns the number of listed files.
func (d *Dataset) Len() int { return len(d.Files) }

// Path returns the on-disk path of file i.
func (d *Dataset) Path(i int) string {
	return filepath.Join(d.Dir, filepath.FromSlash(d.Files[i].Name))
}

// MarkMissing flags file i as absent and reports whether this is the first
// time, so callers can log a load failure exactly once.
func (d *Dataset) MarkMissing(i int) bool {
	if !d.Files[i].Present {
		return false
	}
	d.Files[i].Present = false
	return true
}

// PresentCount returns the number of files still marked present.
func (d *Dataset) PresentCount() int {
	n := 0
	for _, f := range d.Files {
		if f.Present {
			n++
		}
	}
	return n
}
