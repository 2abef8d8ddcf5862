package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"h3-perf/internal/bencherr"
	"h3-perf/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = "Geoname ID;Name;ASCII Name;Population;Coordinates\n" +
	"2950159;Berlin;Berlin;3426354;52.52437, 13.41053\n" +
	"2867714;München;Munich;1260391;48.13743, 11.57549\n" +
	"2886242;Köln;Koeln;963395;50.93333, 6.95\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "cities.csv")
	require.NoError(t, os.WriteFile(src, []byte(source), 0o644))
	return &config.Config{
		LogLevel:      "error",
		LogFormat:     "text",
		Store:         "sqlite",
		SQLitePath:    filepath.Join(dir, "bench.db"),
		SourcePath:    src,
		WorkloadDir:   filepath.Join(dir, "workloads"),
		SampleSize:    2,
		Timing:        "server",
		ProgressEvery: 10,
	}
}

func TestRun_GenerateThenRun(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	require.NoError(t, run(ctx, cfg, []string{"generate", "-seed", "7"}, &bytes.Buffer{}))
	assert.FileExists(t, cfg.RecordsPath())
	require.FileExists(t, cfg.CorpusPath())
	first, err := os.ReadFile(cfg.CorpusPath())
	require.NoError(t, err)
	// 表头 + 2 条记录 * 32
	assert.Equal(t, 65, strings.Count(string(first), "\n"))

	require.NoError(t, run(ctx, cfg, []string{"corpus", "-seed", "9"}, &bytes.Buffer{}))
	second, err := os.ReadFile(cfg.CorpusPath())
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(second))

	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, []string{"run"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "H3 execution: "))
	assert.Contains(t, out.String(), "\nResolution 15\n")
}

func TestRun_ExitCodes(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	err := run(ctx, cfg, nil, &bytes.Buffer{})
	assert.Equal(t, 2, bencherr.ExitCode(err))

	err = run(ctx, cfg, []string{"bench"}, &bytes.Buffer{})
	assert.Equal(t, 2, bencherr.ExitCode(err))

	err = run(ctx, cfg, []string{"generate", "-n", "0"}, &bytes.Buffer{})
	assert.Equal(t, 2, bencherr.ExitCode(err))

	err = run(ctx, cfg, []string{"generate", "-n", "10", "-strict"}, &bytes.Buffer{})
	assert.Equal(t, 3, bencherr.ExitCode(err))
	assert.NoFileExists(t, cfg.CorpusPath())

	err = run(ctx, cfg, []string{"run"}, &bytes.Buffer{})
	assert.Equal(t, 6, bencherr.ExitCode(err))
}

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testConfig(t), []string{"help"}, &out))
	assert.Contains(t, out.String(), "generate [-n N]")
}
