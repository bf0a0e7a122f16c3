package handbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswatch/watcher/internal/core/domain"
)

func TestLoad_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handbook.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 content"), 0o600))

	c := New(path, nil)
	defer c.Close()

	page, err := c.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Equal(t, path, page.URL)
	assert.Equal(t, "application/pdf", page.MIMEType)
	assert.Equal(t, []byte("%PDF-1.4 content"), page.Content)
}

func TestLoad_MissingFile(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent.pdf"), nil)
	defer c.Close()

	page, err := c.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, page)
}

func TestWatch_SignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handbook.pdf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	c := New(path, nil)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := c.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))

	select {
	case _, ok := <-changes:
		assert.True(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("no change signal received")
	}
}

func TestWatch_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handbook.pdf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	c := New(path, nil)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := c.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))

	select {
	case <-changes:
		t.Fatal("unexpected signal for sibling file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handbook.pdf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	c := New(path, nil)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := c.Watch(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
