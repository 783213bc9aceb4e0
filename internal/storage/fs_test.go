package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStorePutGet(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewFSStore(base)
	require.NoError(t, err)

	key := ReportKey("2024-05-01", "abc")
	loc, err := s.Put(ctx, key, strings.NewReader(`{"run_id":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "runs", "2024-05-01", "abc.json"), loc)

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"run_id":"abc"}`, string(b))

	entries, err := os.ReadDir(filepath.Join(base, "runs", "2024-05-01"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file cleaned up")
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	for _, k := range []string{"", "../x.json", "/etc/passwd", "runs/../../x"} {
		_, err := s.Put(context.Background(), k, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrBadKey, k)
	}
}
