package migrate

import (
	"context"
	"fmt"
	"h3-perf/internal/logger"
	"h3-perf/internal/model"
	"h3-perf/internal/query"
	"strings"

	"github.com/jmoiron/sqlx"
)

// 约束：h3_* 列各建一个普通 btree 索引；点列不建空间索引，两种策略都不做额外优化
func cityColumns(pointColumn string) string {
	cols := []string{
		"name TEXT NOT NULL",
		"population BIGINT NOT NULL DEFAULT 0",
		"lat DOUBLE PRECISION NOT NULL",
		"lng DOUBLE PRECISION NOT NULL",
	}
	if pointColumn != "" {
		cols = append(cols, pointColumn)
	}
	for res := 0; res < model.Resolutions; res++ {
		cols = append(cols, query.CellColumn(res)+" TEXT NOT NULL")
	}
	return strings.Join(cols, ",\n            ")
}

func cellIndexes() []string {
	out := make([]string, 0, model.Resolutions)
	for res := 0; res < model.Resolutions; res++ {
		col := query.CellColumn(res)
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS cities_%s ON cities(%s)", col, col))
	}
	return out
}

func schemaStatements(dialect string) []string {
	var stmts []string
	switch dialect {
	case "postgis":
		stmts = append(stmts,
			`CREATE EXTENSION IF NOT EXISTS postgis`,
			`CREATE TABLE IF NOT EXISTS cities (
            id BIGSERIAL PRIMARY KEY,
            `+cityColumns("point geometry(Point, 4326) NOT NULL")+`
        )`)
	default:
		stmts = append(stmts, `CREATE TABLE IF NOT EXISTS cities (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            `+cityColumns("")+`
        )`)
	}
	return append(stmts, cellIndexes()...)
}

// EnsureSchema：创建 cities 表与 16 个单元列索引，已存在时保持不变
func EnsureSchema(ctx context.Context, db *sqlx.DB, d query.Dialect) error {
	for i, s := range schemaStatements(d.Name()) {
		logger.L().Debug("schema_exec", "idx", i, "dialect", d.Name())
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

// ResetSchema：删除已有数据后重建，对应“重新生成测试数据”
func ResetSchema(ctx context.Context, db *sqlx.DB, d query.Dialect) error {
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS cities`); err != nil {
		return fmt.Errorf("drop cities: %w", err)
	}
	logger.L().Info("schema_dropped", "table", "cities")
	return EnsureSchema(ctx, db, d)
}
