package persistence

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS(t *testing.T) {
	migrations, err := MigrationsFS()
	require.NoError(t, err)

	files, err := fs.Glob(migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		content, err := fs.ReadFile(migrations, name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(content), "-- +goose Up"), "%s has no up section", name)
		assert.True(t, strings.Contains(string(content), "-- +goose Down"), "%s has no down section", name)
	}
}
