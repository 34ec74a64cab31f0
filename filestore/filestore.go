// Package filestore persists ticktock state as a single JSON document on an
// afero filesystem. Every write replaces the document atomically by writing
// a temporary file next to it and renaming it into place.
//
// The document is the source of truth: every operation re-reads it and a
// write changes only its own key, so several processes can share one file.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/byte4ever/ticktock"
	"github.com/byte4ever/ticktock/internal/logfields"
)

const (
	dirPerm  = 0o755
	filePerm = 0o600

	corruptStamp = "20060102T150405Z"
)

type (
	// Store implements ticktock.Store on one JSON object whose members are
	// the stored keys.
	Store struct {
		fs     afero.Fs
		path   string
		logger *slog.Logger
		now    func() time.Time

		mu sync.Mutex
	}

	// Option configures a [Store].
	Option func(*Store)

	document map[string]json.RawMessage
)

var _ ticktock.Store = (*Store)(nil)

// WithLogger sets the logger used to report a corrupt document.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open prepares the document at path on fs. A missing file starts empty. A
// corrupt one is renamed to "<path>.corrupt-<timestamp>" and the store
// starts empty, so damaged state never blocks the suite.
func Open(fs afero.Fs, path string, opts ...Option) (*Store, error) {
	s := &Store{
		fs:     fs,
		path:   path,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, o := range opts {
		o(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadLocked(); err != nil {
		return nil, err
	}

	return s, nil
}

// OpenFile opens a document on the host filesystem.
func OpenFile(path string, opts ...Option) (*Store, error) {
	return Open(afero.NewOsFs(), path, opts...)
}

// Get returns the value currently stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return nil, false, err
	}

	v, ok := doc[key]
	if !ok {
		return nil, false, nil
	}

	return []byte(v), true, nil
}

// Set stores value under key. The document is re-read first and only key
// changes, keeping keys written by other handles. value must be valid JSON.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("set %s: %w: value is not JSON", key, ticktock.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}

	doc[key] = append(json.RawMessage(nil), value...)

	return s.flushLocked(doc)
}

// Remove deletes key from the document.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}

	if _, had := doc[key]; !had {
		return nil
	}

	delete(doc, key)

	return s.flushLocked(doc)
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// loadLocked reads the document. Missing and empty files are empty
// documents; a corrupt file is quarantined and treated as empty.
func (s *Store) loadLocked() (document, error) {
	doc := make(document)

	raw, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(raw) == 0 {
		return doc, nil
	}

	if err = json.Unmarshal(raw, &doc); err != nil {
		s.quarantineLocked(err)
		return make(document), nil
	}

	return doc, nil
}

func (s *Store) quarantineLocked(cause error) {
	target := s.path + ".corrupt-" + s.now().UTC().Format(corruptStamp)

	if err := s.fs.Rename(s.path, target); err != nil {
		s.logger.Warn("Corrupt state file, starting empty; could not move it aside",
			logfields.Path(s.path), logfields.Error(cause),
			slog.String("rename_error", err.Error()))

		return
	}

	s.logger.Warn("Corrupt state file moved aside, starting empty",
		logfields.Path(s.path), slog.String("moved_to", target), logfields.Error(cause))
}

func (s *Store) flushLocked(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err = s.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(raw)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = s.fs.Chmod(tmpName, filePerm)
	}

	if err == nil {
		err = s.fs.Rename(tmpName, s.path)
	}

	if err != nil {
		_ = s.fs.Remove(tmpName) // Best effort cleanup of the partial write
		return fmt.Errorf("write %s: %w", s.path, err)
	}

	return nil
}
