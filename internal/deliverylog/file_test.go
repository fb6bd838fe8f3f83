package deliverylog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileMembership_MissingFileIsEmpty(t *testing.T) {
	f := NewFileMembership(filepath.Join(t.TempDir(), "nope", "sent_log.txt"))

	keys, err := f.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileMembership_AppendAndRewrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log", "sent_log.txt")
	f := NewFileMembership(path)

	require.NoError(t, f.Append(ctx, "1_3"))
	require.NoError(t, f.Append(ctx, "2_0"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1_3\n2_0\n", string(raw))

	require.NoError(t, f.Rewrite(ctx, []string{"2_0"}))

	keys, err := f.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2_0"}, keys)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileMembership_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_log.txt")
	require.NoError(t, os.WriteFile(path, []byte("1_3\n\n  \n2_0\r\n"), 0o644))

	keys, err := NewFileMembership(path).Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1_3", "2_0"}, keys)
}
