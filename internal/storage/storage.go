// Package storage manages the two on-disk namespaces of the photo editor:
// original uploads and processed outputs.
//
// Files are identified by a plain relative name inside a namespace. Names
// never contain path separators or "..", so a name can only ever resolve to a
// file directly inside its directory. All access goes through an afero.Fs,
// which is the OS filesystem in production and an in-memory one in tests.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Kind selects a storage namespace.
type Kind string

const (
	// Uploads holds originals exactly as they were received.
	Uploads Kind = "uploads"

	// Processed holds the outputs of image operations.
	Processed Kind = "processed"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidKind = errors.New("invalid kind")
	ErrInvalidName = errors.New("invalid filename")
)

// ParseKind resolves "uploads" or "processed".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Uploads, Processed:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Store resolves names inside the upload and processed directories.
// It holds no mutable state and is safe for concurrent use.
type Store struct {
	fs   afero.Fs
	dirs map[Kind]string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to prefix upload names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a Store rooted at uploadDir and processedDir on fsys.
// Directories are not created; call Provision before serving.
func New(fsys afero.Fs, uploadDir, processedDir string, opts ...Option) *Store {
	s := &Store{
		fs: fsys,
		dirs: map[Kind]string{
			Uploads:   filepath.Clean(uploadDir),
			Processed: filepath.Clean(processedDir),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provision creates both directories if they are missing. It is idempotent.
func (s *Store) Provision() error {
	for _, k := range []Kind{Uploads, Processed} {
		if err := s.fs.MkdirAll(s.dirs[k], 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory %s: %w", k, s.dirs[k], err)
		}
	}
	return nil
}

// Fs returns the filesystem the store writes to.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Dir returns the directory backing kind.
func (s *Store) Dir(kind Kind) string {
	return s.dirs[kind]
}

// Path returns the location of name inside kind.
//
// # Errors
//
//   - Returns ErrInvalidKind if kind is not Uploads or Processed
//   - Returns ErrInvalidName if name is not a plain file name
func (s *Store) Path(kind Kind, name string) (string, error) {
	dir, ok := s.dirs[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if err := ValidName(name); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Exists reports whether name is a regular file inside kind.
func (s *Store) Exists(kind Kind, name string) (bool, error) {
	path, err := s.Path(kind, name)
	if err != nil {
		return false, err
	}
	info, err := s.fs.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// Read returns the contents of name inside kind.
//
// # Errors
//
//   - Returns ErrNotFound if the file does not exist
//   - Returns ErrInvalidKind or ErrInvalidName for bad identifiers
func (s *Store) Read(kind Kind, name string) ([]byte, error) {
	path, err := s.Path(kind, name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Open opens name inside kind for streaming. The caller closes the file.
func (s *Store) Open(kind Kind, name string) (afero.File, os.FileInfo, error) {
	path, err := s.Path(kind, name)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.fs.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return f, info, nil
}

// Write stores data as name inside kind, replacing any existing file.
func (s *Store) Write(kind Kind, name string, data []byte) (string, error) {
	path, err := s.Path(kind, name)
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// SaveUpload stores the bytes of an uploaded file under a new name of the
// form "<unix seconds>_<sanitized basename>" and returns that name and its
// path. Uploads with the same basename in the same second overwrite each
// other.
func (s *Store) SaveUpload(original string, data []byte) (name, path string, err error) {
	base, err := SanitizeFilename(original)
	if err != nil {
		return "", "", err
	}
	name = fmt.Sprintf("%d_%s", s.now().Unix(), base)
	path, err = s.Write(Uploads, name, data)
	if err != nil {
		return "", "", err
	}
	return name, path, nil
}

// SanitizeFilename reduces a client supplied file name to its basename made
// of ASCII letters, digits, '_', '.' and '-'. Spaces become underscores,
// other characters are dropped. Runs of dots collapse to one and leading dots
// are stripped.
//
// # Errors
//
//   - Returns ErrInvalidName if nothing usable remains
func SanitizeFilename(original string) (string, error) {
	base := original
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}

	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, base)
	for strings.Contains(clean, "..") {
		clean = strings.ReplaceAll(clean, "..", ".")
	}
	clean = strings.TrimLeft(clean, ".")

	if clean == "" {
		return "", fmt.Errorf("%w: %q has no usable characters", ErrInvalidName, original)
	}
	return clean, nil
}

// ValidName reports whether name is a plain file name that stays inside its
// directory.
func ValidName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: contains NUL", ErrInvalidName)
	}
	return nil
}
