package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNamesAreEmbeddedAndOrdered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
	assert.IsNonDecreasing(t, names)
}

func TestInitMigrationDeclaresConstraints(t *testing.T) {
	raw, err := migrationFiles.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)
	schema := string(raw)

	for _, fragment := range []string{
		"ticket_number TEXT NOT NULL UNIQUE",
		"email      TEXT NOT NULL UNIQUE",
		"REFERENCES users (id)",
		"REFERENCES departments (id)",
		"CHECK (status IN ('Pending', 'In Progress', 'Resolved'))",
	} {
		assert.Contains(t, schema, fragment)
	}
}
