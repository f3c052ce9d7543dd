package chunkstore

import (
	"errors"
	"testing"

	"doc_chat/internal/errs"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/chunks")

	chunks, ok, err := s.Load("Report")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, chunks)
}

func TestSaveThenLoad(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/chunks")
	want := []string{"Alpha beta gamma.", "Delta epsilon.", "ünïcode & <tags>"}

	require.NoError(t, s.Save("Report", want))

	got, ok, err := s.Load("Report")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSaveOverwrites(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/chunks")

	require.NoError(t, s.Save("doc", []string{"a", "b", "c"}))
	require.NoError(t, s.Save("doc", []string{"z"}))

	got, ok, err := s.Load("doc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"z"}, got)
}

func TestSaveEmptyList(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/chunks")

	require.NoError(t, s.Save("empty", nil))

	got, ok, err := s.Load("empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestFileLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/chunks")

	require.NoError(t, s.Save("Report", []string{"x"}))

	assert.Equal(t, "/chunks/Report.json", s.Path("Report"))
	data, err := afero.ReadFile(fs, "/chunks/Report.json")
	require.NoError(t, err)
	assert.JSONEq(t, `["x"]`, string(data))

	entries, err := afero.ReadDir(fs, "/chunks")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/chunks/bad.json", []byte("{not json"), 0o644))
	s := New(fs, "/chunks")

	_, _, err := s.Load("bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrStorage))
}

func TestSaveFailure(t *testing.T) {
	s := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/chunks")

	err := s.Save("doc", []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrStorage))
}
