// 包 store：城市记录的持久化、随机采样与计时执行
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"h3-perf/internal/logger"
	"h3-perf/internal/model"
	"h3-perf/internal/query"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/paulmach/orb/encoding/ewkb"
)

// Timing：耗时来源
type Timing string

const (
	// TimingServer：读取存储自身的执行计时（PostgreSQL EXPLAIN ANALYZE）
	TimingServer Timing = "server"
	// TimingClient：驱动侧计时，包含传输与结果读取
	TimingClient Timing = "client"
)

// Store：持有连接与方言；所有方法按调用顺序同步执行
type Store struct {
	db      *sqlx.DB
	dialect query.Dialect
	timing  Timing
}

func AttachDB(db *sqlx.DB, d query.Dialect, timing Timing) *Store {
	return &Store{db: db, dialect: d, timing: timing}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Dialect() query.Dialect { return s.dialect }

// serverTiming：仅 PostGIS 方言提供服务端计时，其它存储回退到驱动侧计时
func (s *Store) serverTiming() bool {
	return s.timing == TimingServer && s.dialect.Name() == "postgis"
}

// cityRow：cities 表的扫描结构
type cityRow struct {
	ID         int64   `db:"id"`
	Name       string  `db:"name"`
	Population int64   `db:"population"`
	Lat        float64 `db:"lat"`
	Lng        float64 `db:"lng"`
	H3_0       string  `db:"h3_0"`
	H3_1       string  `db:"h3_1"`
	H3_2       string  `db:"h3_2"`
	H3_3       string  `db:"h3_3"`
	H3_4       string  `db:"h3_4"`
	H3_5       string  `db:"h3_5"`
	H3_6       string  `db:"h3_6"`
	H3_7       string  `db:"h3_7"`
	H3_8       string  `db:"h3_8"`
	H3_9       string  `db:"h3_9"`
	H3_10      string  `db:"h3_10"`
	H3_11      string  `db:"h3_11"`
	H3_12      string  `db:"h3_12"`
	H3_13      string  `db:"h3_13"`
	H3_14      string  `db:"h3_14"`
	H3_15      string  `db:"h3_15"`
}

func (c cityRow) record() model.IndexedRecord {
	return model.IndexedRecord{
		ID:         c.ID,
		Name:       c.Name,
		Population: c.Population,
		Point:      model.GeoPoint{Lat: c.Lat, Lng: c.Lng},
		Cells: [model.Resolutions]string{
			c.H3_0, c.H3_1, c.H3_2, c.H3_3, c.H3_4, c.H3_5, c.H3_6, c.H3_7,
			c.H3_8, c.H3_9, c.H3_10, c.H3_11, c.H3_12, c.H3_13, c.H3_14, c.H3_15,
		},
	}
}

func cellColumnList() string {
	cols := make([]string, model.Resolutions)
	for i := range cols {
		cols[i] = query.CellColumn(i)
	}
	return strings.Join(cols, ", ")
}

func (s *Store) insertSQL() string {
	n := 4 + model.Resolutions
	vals := make([]string, 0, n+1)
	for i := 0; i < 4; i++ {
		vals = append(vals, "?")
	}
	cols := "name, population, lat, lng, "
	if s.dialect.Name() == "postgis" {
		cols += "point, "
		vals = append(vals, "ST_GeomFromEWKB(?)")
	}
	for i := 0; i < model.Resolutions; i++ {
		vals = append(vals, "?")
	}
	return s.db.Rebind("INSERT INTO cities(" + cols + cellColumnList() + ") VALUES(" + strings.Join(vals, ", ") + ")")
}

func (s *Store) insertArgs(r model.IndexedRecord) []any {
	args := []any{r.Name, r.Population, r.Point.Lat, r.Point.Lng}
	if s.dialect.Name() == "postgis" {
		args = append(args, ewkb.Value(r.Point.Orb(), 4326))
	}
	for _, c := range r.Cells {
		args = append(args, c)
	}
	return args
}

// InsertRecords：单事务写入全部记录，失败时整体回滚
func (s *Store) InsertRecords(ctx context.Context, records []model.IndexedRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PreparexContext(ctx, s.insertSQL())
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, s.insertArgs(r)...); err != nil {
			return fmt.Errorf("insert %q (row %d): %w", r.Name, i, err)
		}
		if (i+1)%5000 == 0 {
			logger.L().Info("insert_progress", "count", i+1)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Debug("insert_done", "count", len(records))
	return nil
}

// Count：当前记录数
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(1) FROM cities")
	return n, err
}

// RandomRecords：按存储自身的随机顺序读取至多 n 条记录
func (s *Store) RandomRecords(ctx context.Context, n int) ([]model.IndexedRecord, error) {
	q := s.db.Rebind("SELECT id, name, population, lat, lng, " + cellColumnList() + " FROM cities ORDER BY RANDOM() LIMIT ?")
	var rows []cityRow
	if err := s.db.SelectContext(ctx, &rows, q, n); err != nil {
		return nil, err
	}
	out := make([]model.IndexedRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	logger.L().Debug("db_random_records", "requested", n, "got", len(out))
	return out, nil
}

// explainResult：EXPLAIN (ANALYZE, FORMAT JSON) 的顶层结构
type explainResult struct {
	Plan struct {
		ActualRows float64 `json:"Actual Rows"`
	} `json:"Plan"`
	PlanningTime  float64 `json:"Planning Time"`
	ExecutionTime float64 `json:"Execution Time"`
}

// Execute：执行绑定语句并返回耗时
// 约束：服务端计时只取 Execution Time（毫秒），不含规划、传输与序列化
func (s *Store) Execute(ctx context.Context, st query.Statement) (query.Execution, error) {
	if s.serverTiming() {
		return s.explain(ctx, st)
	}
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return query.Execution{}, describe(err)
	}
	defer rows.Close()
	var n int64
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return query.Execution{}, describe(err)
	}
	return query.Execution{Rows: n, Elapsed: time.Since(start)}, nil
}

func (s *Store) explain(ctx context.Context, st query.Statement) (query.Execution, error) {
	var raw string
	if err := s.db.QueryRowxContext(ctx, "EXPLAIN (ANALYZE, FORMAT JSON) "+st.SQL, st.Args...).Scan(&raw); err != nil {
		return query.Execution{}, describe(err)
	}
	return parseExplain([]byte(raw))
}

func parseExplain(raw []byte) (query.Execution, error) {
	var plans []explainResult
	if err := json.Unmarshal(raw, &plans); err != nil {
		return query.Execution{}, fmt.Errorf("parse explain output: %w", err)
	}
	if len(plans) == 0 {
		return query.Execution{}, errors.New("empty explain output")
	}
	p := plans[0]
	return query.Execution{
		Rows:    int64(p.Plan.ActualRows),
		Elapsed: time.Duration(p.ExecutionTime * float64(time.Millisecond)),
	}, nil
}

// describe：为 PostgreSQL 错误附加 SQLSTATE
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (%s): %w", pqErr.Code.Name(), pqErr.Code, err)
	}
	return err
}
