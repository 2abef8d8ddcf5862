package utils

import (
	"database/sql"
	"h3-perf/internal/config"
	"h3-perf/internal/logger"
	"h3-perf/internal/spatial"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// SQLiteDriver：注册了 st_distance_spheroid 的 sqlite3 驱动名
const SQLiteDriver = "sqlite3_spheroid"

var registerSQLite sync.Once

// OpenPostgres：按配置打开连接池
// 约束：查询串行执行，默认仅一个连接，保证两种策略在同一会话中计时
func OpenPostgres(c *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", c.PostgresDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.PGMaxOpenConns)
	db.SetMaxIdleConns(c.PGMaxIdleConns)
	logger.L().Debug("pg_open", "host", c.PGHost, "db", c.PGDB, "max_open", c.PGMaxOpenConns)
	return db, nil
}

// OpenSQLite：打开（必要时创建）内嵌数据库文件；path 为 ":memory:" 时使用内存库
func OpenSQLite(path string) (*sqlx.DB, error) {
	registerSQLite.Do(func() {
		sql.Register(SQLiteDriver, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("st_distance_spheroid", spatial.SpheroidDistance, true)
			},
		})
		sqlx.BindDriver(SQLiteDriver, sqlx.QUESTION)
	})
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Open(SQLiteDriver, path)
	if err != nil {
		return nil, err
	}
	// 内存库每个连接各自独立，固定单连接
	db.SetMaxOpenConns(1)
	logger.L().Debug("sqlite_open", "path", path)
	return db, nil
}
