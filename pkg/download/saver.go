// Package download provides the collaborators that persist a generated book
// once the endpoint returns it: a local directory, an S3 bucket, or a
// PDF-checking wrapper around either.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultFilename is the name every generated book is saved under.
const DefaultFilename = "generated_book.pdf"

// ErrEmptyFilename is returned when a saver is asked to write without a name.
var ErrEmptyFilename = errors.New("download: filename is required")

// Saver persists a binary response under filename.
type Saver interface {
	SaveBlobAs(ctx context.Context, data []byte, filename string) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, data []byte, filename string) error

// SaveBlobAs implements Saver.
func (f SaverFunc) SaveBlobAs(ctx context.Context, data []byte, filename string) error {
	return f(ctx, data, filename)
}

// FileSaver writes downloads into a directory, never overwriting an existing
// file: collisions get a " (n)" suffix the way browsers do.
type FileSaver struct {
	dir    string
	perm   os.FileMode
	logger *zap.Logger
	last   string
}

// FileOption configures a FileSaver.
type FileOption func(*FileSaver)

// WithFileMode sets the permissions of written files.
func WithFileMode(mode os.FileMode) FileOption {
	return func(s *FileSaver) {
		if mode != 0 {
			s.perm = mode
		}
	}
}

// WithFileLogger attaches a logger.
func WithFileLogger(logger *zap.Logger) FileOption {
	return func(s *FileSaver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileSaver returns a saver rooted at dir ("." when blank).
func NewFileSaver(dir string, opts ...FileOption) *FileSaver {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}
	s := &FileSaver{
		dir:    dir,
		perm:   0o644,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dir reports the target directory.
func (s *FileSaver) Dir() string {
	return s.dir
}

// LastPath reports where the most recent download was written.
func (s *FileSaver) LastPath() string {
	return s.last
}

// SaveBlobAs writes data to a temp file in the target directory and renames
// it into place under the first free variant of filename.
func (s *FileSaver) SaveBlobAs(ctx context.Context, data []byte, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return ErrEmptyFilename
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("download: mkdir %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".bookform-*.part")
	if err != nil {
		return fmt.Errorf("download: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("download: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("download: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		cleanup()
		return fmt.Errorf("download: chmod %s: %w", tmpName, err)
	}

	target, err := s.claim(name)
	if err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		_ = os.Remove(target)
		return fmt.Errorf("download: rename into %s: %w", target, err)
	}

	s.last = target
	s.logger.Info("book saved", zap.String("path", target), zap.Int("bytes", len(data)))
	return nil
}

// claim reserves the first free name by creating it exclusively; the rename
// that follows replaces the placeholder.
func (s *FileSaver) claim(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < 10000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(s.dir, candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, s.perm)
		if err == nil {
			_ = f.Close()
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("download: reserve %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("download: no free name for %s in %s", name, s.dir)
}
