package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatementsSkipsCommentsAndBlanks(t *testing.T) {
	script := `-- header
CREATE TABLE a (id TEXT);

-- between
CREATE INDEX idx_a ON a (id);
  ;
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id TEXT)", stmts[0])
	assert.Equal(t, "CREATE INDEX idx_a ON a (id)", stmts[1])
}

func TestEmbeddedSchemasPresent(t *testing.T) {
	for _, name := range []string{"migrations/postgres.sql", "migrations/sqlite.sql"} {
		raw, err := migrations.ReadFile(name)
		require.NoError(t, err)
		stmts := splitStatements(string(raw))
		assert.NotEmpty(t, stmts, name)
	}
}
