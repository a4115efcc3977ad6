package reports

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
)

func TestWriterPersistsPayload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir)

	path, err := w.Write(Descriptor{ID: "abc-1", Payload: "Дата;Показы\n"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc-1.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Дата;Показы\n", string(data))

	_, err = w.Write(Descriptor{ID: "abc-1", Payload: ""})
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "rewrites replace previous content")
}

func TestWriterRejectsUnsafeIDs(t *testing.T) {
	w := NewWriter(t.TempDir())
	for _, id := range []string{"", "  ", "../escape", "a/b", ".."} {
		_, err := w.Write(Descriptor{ID: id})
		require.Error(t, err, id)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), id)
	}
}
