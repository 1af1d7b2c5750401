package filestore

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryan-Har/commonground/pkg/models"
)

func newTestStore(maxBytes int64) *Store {
	return New(afero.NewMemMapFs(), slog.New(slog.NewTextHandler(io.Discard, nil)), maxBytes)
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(0)
	content := []byte{0x00, 0xff, 'h', 'i', '\n', 0x7f}

	n, err := s.Put("avatar.png", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)

	f, err := s.Get("avatar.png")
	require.NoError(t, err)
	defer f.Close()

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestStore_SecondPutConflicts(t *testing.T) {
	s := newTestStore(0)

	_, err := s.Put("doc.txt", strings.NewReader("first"))
	require.NoError(t, err)

	_, err = s.Put("doc.txt", strings.NewReader("second"))
	assert.ErrorIs(t, err, models.ErrConflict)

	f, err := s.Get("doc.txt")
	require.NoError(t, err)
	defer f.Close()
	got, _ := io.ReadAll(f)
	assert.Equal(t, "first", string(got), "a conflicting put leaves the original untouched")
}

func TestStore_DeleteAndNotFound(t *testing.T) {
	s := newTestStore(0)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.Delete("missing"), models.ErrNotFound)

	_, err = s.Put("temp", strings.NewReader("x"))
	require.NoError(t, err)

	ok, err := s.Exists("temp")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete("temp"))

	ok, err = s.Exists("temp")
	require.NoError(t, err)
	assert.False(t, ok)

	// the id is free again after delete
	_, err = s.Put("temp", strings.NewReader("y"))
	assert.NoError(t, err)
}

func TestStore_SizeLimit(t *testing.T) {
	s := newTestStore(4)

	_, err := s.Put("fits", strings.NewReader("1234"))
	require.NoError(t, err)

	_, err = s.Put("big", strings.NewReader("12345"))
	var tooLarge *TooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, int64(4), tooLarge.Limit)

	ok, err := s.Exists("big")
	require.NoError(t, err)
	assert.False(t, ok, "partial uploads are removed")
}

func TestValidateID(t *testing.T) {
	valid := []string{"a", "file.txt", "IMG_0001.jpeg", "report-2025.pdf", "a.b"}
	for _, id := range valid {
		assert.NoError(t, ValidateID(id), id)
	}

	invalid := []string{"", "../etc/passwd", "a/b", ".hidden", "a..b", "with space", strings.Repeat("x", 129), "nul\x00"}
	for _, id := range invalid {
		var vErr *models.ValidationError
		assert.ErrorAs(t, ValidateID(id), &vErr, "%q", id)
	}
}
