package fsutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, WriteFileAtomic(fs, "/data/a.txt", []byte("old"), 0o644))
	require.NoError(t, WriteFileAtomic(fs, "/data/a.txt", []byte("new"), 0o644))

	got, err := afero.ReadFile(fs, "/data/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "a.txt", entries[0].Name())
}

func TestWriteJSONAtomicKeepsNonASCII(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, WriteJSONAtomic(fs, "/c/x.json", []string{"naïve <b>", "日本"}))

	got, err := afero.ReadFile(fs, "/c/x.json")
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"naïve <b>\",\n  \"日本\"\n]\n", string(got))
}

func TestWriteFileAtomicFailsOnReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	assert.Error(t, WriteFileAtomic(fs, "/x/y.txt", []byte("z"), 0o644))
}
