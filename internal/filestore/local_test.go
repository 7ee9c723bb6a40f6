package filestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := "data/VVC/2508-Plenary/C/1_a.docx"
	payload := "docx bytes"
	require.NoError(t, s.Save(ctx, key, strings.NewReader(payload), int64(len(payload)), "application/octet-stream"))

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, payload, string(got))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Open(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_SaveOverwrites(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := "data/VVC/m/C/1_a.txt"
	require.NoError(t, s.Save(ctx, key, strings.NewReader("one"), 3, "text/plain"))
	require.NoError(t, s.Save(ctx, key, strings.NewReader("two"), 3, "text/plain"))

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "two", string(got))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	err = s.Save(ctx, "../escape.txt", strings.NewReader("x"), 1, "text/plain")
	require.Error(t, err)
	_, err = s.Open(ctx, "../../etc/passwd")
	require.Error(t, err)
}

func TestLocalStore_DeleteMissingIsNoop(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Delete(context.Background(), "data/VVC/m/C/missing.txt"))
}

func TestNewLocalStore_RequiresRoot(t *testing.T) {
	_, err := NewLocalStore("")
	require.Error(t, err)
}
