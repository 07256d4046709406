// Package storage keeps generated documents on disk so they can be served
// by name from a download link.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	filePrefix = "modified_"
	fileExt    = ".docx"
)

var (
	ErrInvalidName = errors.Base("invalid file name")
	ErrNotFound    = errors.Base("file not found")
)

// Store is a flat directory of generated files named modified_<uuid>.docx.
type Store struct {
	dir       string
	retention time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithRetention sets how long files are kept by Sweep. 0 keeps everything.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		s.retention = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Errorf("creating storage directory: %w", err)
	}
	s := &Store{
		dir:    dir,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// NewName returns a fresh file name.
func NewName() string {
	return filePrefix + uuid.NewString() + fileExt
}

// ValidName reports whether name is a bare file name this store could have
// produced.
func ValidName(name string) bool {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
		return false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt)
	_, err := uuid.Parse(id)
	return err == nil
}

// Save writes data under a new name and returns the name.
func (s *Store) Save(data []byte) (string, error) {
	name := NewName()
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", errors.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Errorf("renaming %s: %w", name, err)
	}

	s.logger.Debug().Str("file", name).Int("size", len(data)).Msg("Stored generated file")
	return name, nil
}

// Path resolves name inside the store, rejecting anything that is not a
// generated file name.
func (s *Store) Path(name string) (string, error) {
	if !ValidName(name) {
		return "", errors.WithStack(ErrInvalidName)
	}
	return filepath.Join(s.dir, name), nil
}

// Open opens a stored file for reading.
func (s *Store) Open(name string) (*os.File, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.WithStack(ErrNotFound)
	} else if err != nil {
		return nil, errors.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

// Delete removes a stored file.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); errors.Is(err, os.ErrNotExist) {
		return errors.WithStack(ErrNotFound)
	} else if err != nil {
		return errors.Errorf("removing %s: %w", name, err)
	}
	return nil
}

// Sweep removes generated files older than the retention period and
// returns how many were removed.
func (s *Store) Sweep() (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.Errorf("reading storage directory: %w", err)
	}

	cutoff := s.now().Add(-s.retention)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !ValidName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Dur("retention", s.retention).Msg("Swept expired files")
	}
	return removed, errors.Join(errs...)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if s.retention <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(); err != nil {
				s.logger.Warn().Err(err).Msg("Sweep failed")
			}
		}
	}
}
