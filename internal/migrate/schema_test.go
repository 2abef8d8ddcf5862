package migrate

import (
	"context"
	"strings"
	"testing"

	"h3-perf/internal/query"
	"h3-perf/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaStatements_PostGIS(t *testing.T) {
	stmts := schemaStatements("postgis")
	require.Len(t, stmts, 2+16)
	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS postgis", stmts[0])
	assert.Contains(t, stmts[1], "point geometry(Point, 4326) NOT NULL")
	assert.Contains(t, stmts[1], "h3_15 TEXT NOT NULL")
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS cities_h3_0 ON cities(h3_0)", stmts[2])
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS cities_h3_15 ON cities(h3_15)", stmts[17])
}

func TestSchemaStatements_SQLite(t *testing.T) {
	stmts := schemaStatements("sqlite")
	require.Len(t, stmts, 1+16)
	assert.NotContains(t, stmts[0], "geometry")
	assert.True(t, strings.Contains(stmts[0], "AUTOINCREMENT"))
}

func TestEnsureAndResetSchema_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := utils.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, EnsureSchema(ctx, db, query.SQLite{}))
	require.NoError(t, EnsureSchema(ctx, db, query.SQLite{}))

	var indexes int
	require.NoError(t, db.Get(&indexes, `SELECT COUNT(1) FROM sqlite_master WHERE type = 'index' AND name LIKE 'cities_h3_%'`))
	assert.Equal(t, 16, indexes)

	_, err = db.Exec(`INSERT INTO cities(name, population, lat, lng, h3_0, h3_1, h3_2, h3_3, h3_4, h3_5, h3_6, h3_7, h3_8, h3_9, h3_10, h3_11, h3_12, h3_13, h3_14, h3_15)
        VALUES('x', 1, 0, 0, 'a','a','a','a','a','a','a','a','a','a','a','a','a','a','a','a')`)
	require.NoError(t, err)

	require.NoError(t, ResetSchema(ctx, db, query.SQLite{}))
	var rows int
	require.NoError(t, db.Get(&rows, `SELECT COUNT(1) FROM cities`))
	assert.Zero(t, rows)
}
