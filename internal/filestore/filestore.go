// Package filestore keeps uploaded files in a flat directory keyed by
// caller supplied ids. There is no index, deduplication or integrity check;
// the existence check on Put races with concurrent writers of the same id.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/Ryan-Har/commonground/internal/logutil"
	"github.com/Ryan-Har/commonground/internal/metrics"
	"github.com/Ryan-Har/commonground/pkg/models"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// TooLargeError is returned by Put when the body exceeds the store limit.
// The partial file is removed.
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file exceeds %d bytes", e.Limit)
}

type Store struct {
	fs       afero.Fs
	log      *slog.Logger
	maxBytes int64 // zero means unlimited
}

// New returns a store over fs. Servers pass an afero.BasePathFs rooted at
// the upload directory, tests an afero.NewMemMapFs().
func New(fs afero.Fs, logger *slog.Logger, maxBytes int64) *Store {
	return &Store{fs: fs, log: logutil.WithFields(logger, "component", "filestore"), maxBytes: maxBytes}
}

// ValidateID rejects ids that could escape the store directory or collide
// with hidden files.
func ValidateID(id string) error {
	if !validID.MatchString(id) || strings.Contains(id, "..") {
		return models.NewValidationError(fmt.Sprintf("invalid file id %q", id))
	}
	return nil
}

// Put writes r under id. A second Put for an existing id is a ConflictError.
func (s *Store) Put(id string, r io.Reader) (int64, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "file store write", "id", id)()

	if err := ValidateID(id); err != nil {
		metrics.RecordFileOperation("put", "invalid")
		return 0, err
	}

	f, err := s.fs.OpenFile(id, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			metrics.RecordFileOperation("put", "conflict")
			return 0, models.NewConflictError("file", id, err)
		}
		metrics.RecordFileOperation("put", "error")
		return 0, logutil.LogAndWrapErr(s.log, "failed to create file", err, "id", id)
	}

	src := r
	if s.maxBytes > 0 {
		// one extra byte tells an exact fit apart from an overflow
		src = io.LimitReader(r, s.maxBytes+1)
	}

	n, err := io.Copy(f, src)
	closeErr := f.Close()
	switch {
	case err == nil && s.maxBytes > 0 && n > s.maxBytes:
		err = &TooLargeError{Limit: s.maxBytes}
	case err == nil:
		err = closeErr
	}
	if err != nil {
		if rmErr := s.fs.Remove(id); rmErr != nil {
			s.log.Warn("failed to remove partial file", "id", id, "err", rmErr)
		}
		var tooLarge *TooLargeError
		if errors.As(err, &tooLarge) {
			metrics.RecordFileOperation("put", "too_large")
			return 0, err
		}
		metrics.RecordFileOperation("put", "error")
		return 0, logutil.LogAndWrapErr(s.log, "failed to write file", err, "id", id)
	}

	metrics.RecordFileOperation("put", "ok")
	metrics.FileBytesStored.Add(float64(n))
	return n, nil
}

// Get opens the file stored under id. The caller closes it.
func (s *Store) Get(id string) (afero.File, error) {
	if err := ValidateID(id); err != nil {
		metrics.RecordFileOperation("get", "invalid")
		return nil, err
	}

	f, err := s.fs.Open(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			metrics.RecordFileOperation("get", "not_found")
			return nil, models.NewNotFoundError("file", id)
		}
		metrics.RecordFileOperation("get", "error")
		return nil, logutil.LogAndWrapErr(s.log, "failed to open file", err, "id", id)
	}

	metrics.RecordFileOperation("get", "ok")
	return f, nil
}

// Delete removes the file stored under id.
func (s *Store) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		metrics.RecordFileOperation("delete", "invalid")
		return err
	}

	if err := s.fs.Remove(id); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			metrics.RecordFileOperation("delete", "not_found")
			return models.NewNotFoundError("file", id)
		}
		metrics.RecordFileOperation("delete", "error")
		return logutil.LogAndWrapErr(s.log, "failed to delete file", err, "id", id)
	}

	metrics.RecordFileOperation("delete", "ok")
	return nil
}

// Exists reports whether a file is stored under id.
func (s *Store) Exists(id string) (bool, error) {
	if err := ValidateID(id); err != nil {
		return false, err
	}
	return afero.Exists(s.fs, id)
}
