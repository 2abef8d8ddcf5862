package utils

import (
	"path/filepath"
	"testing"

	"h3-perf/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_RegistersSpheroidDistance(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "sub", "bench.db"))
	require.NoError(t, err)
	defer db.Close()

	var d float64
	require.NoError(t, db.Get(&d, "SELECT st_distance_spheroid(?, ?, ?, ?)", -37.95103342, 144.42486789, -37.65282114, 143.92649554))
	assert.InDelta(t, 54972.271, d, 0.5)

	// 第二次打开不应重复注册驱动
	db2, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db2.Close()
	require.NoError(t, db2.Ping())
}

func TestOpenRedis_DisabledWithoutChannel(t *testing.T) {
	assert.Nil(t, OpenRedis(&config.Config{}))
	c := OpenRedis(&config.Config{ProgressChannel: "bench", RedisHost: "127.0.0.1", RedisPort: "6399", RedisDB: 2})
	require.NotNil(t, c)
	assert.Equal(t, "127.0.0.1:6399", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)
	_ = c.Close()
}

func TestOpenPostgres_AppliesPoolSettings(t *testing.T) {
	db, err := OpenPostgres(&config.Config{PGUser: "postgres", PGHost: "localhost", PGPort: "5432", PGDB: "x", PGSSLMode: "disable", PGMaxOpenConns: 1})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}
