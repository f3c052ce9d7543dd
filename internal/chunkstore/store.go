// Package chunkstore persists the chunk list produced for a document as one
// JSON file per document base name.
//
// The cache directory is single-writer: two processes saving the same base
// name concurrently are not supported.
package chunkstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"doc_chat/internal/errs"
	"doc_chat/internal/fsutil"

	"github.com/spf13/afero"
)

// Store reads and writes cached chunk lists under a directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// New returns a Store rooted at dir on fs.
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// NewOS returns a Store on the local filesystem.
func NewOS(dir string) *Store {
	return New(afero.NewOsFs(), dir)
}

// Path returns the cache file used for baseName.
func (s *Store) Path(baseName string) string {
	return filepath.Join(s.dir, baseName+".json")
}

// Load returns the chunks saved for baseName. The boolean is false when
// nothing has been saved yet.
func (s *Store) Load(baseName string) ([]string, bool, error) {
	data, err := afero.ReadFile(s.fs, s.Path(baseName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.E(errs.KindStorage, "chunkstore.load", err)
	}

	var chunks []string
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, false, errs.E(errs.KindStorage, "chunkstore.load", err)
	}
	if chunks == nil {
		chunks = []string{}
	}
	return chunks, true, nil
}

// Save replaces the chunks stored for baseName.
func (s *Store) Save(baseName string, chunks []string) error {
	if chunks == nil {
		chunks = []string{}
	}
	if err := fsutil.WriteJSONAtomic(s.fs, s.Path(baseName), chunks); err != nil {
		return errs.E(errs.KindStorage, "chunkstore.save", err)
	}
	return nil
}
