package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), URLPrefix: "/files/"})
	require.NoError(t, err)

	key := "reports/org-1/site-1/1.pdf"
	require.NoError(t, s.Write(ctx, key, strings.NewReader("%PDF-1.4"), -1, "application/pdf"))

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Read(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	url, err := s.GetURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "/files/"+key, url)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Read(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageStaysInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(LocalConfig{BasePath: base})
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "../../escape.txt", strings.NewReader("x"), 1, "text/plain"))
	ok, err := s.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok, "traversal segments are resolved inside the base path")
}

func TestNewUnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "ftp"})
	assert.Error(t, err)
}
