package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_EveryUpHasDown(t *testing.T) {
	ups, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	require.Len(t, ups, 4)

	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(FS, down)
		assert.NoError(t, err, "missing %s", down)
	}
}

func TestFS_CreatesAllTables(t *testing.T) {
	var schema strings.Builder
	ups, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	for _, up := range ups {
		data, err := fs.ReadFile(FS, up)
		require.NoError(t, err)
		schema.Write(data)
	}

	for _, table := range []string{"users", "user_tokens", "products", "orders"} {
		assert.Contains(t, schema.String(), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
