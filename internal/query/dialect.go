// 包 query：查询描述符构造、方言语句与语料打乱
package query

import (
	"fmt"
	"h3-perf/internal/model"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Statement：可执行语句与绑定参数
type Statement struct {
	SQL  string
	Args []any
}

// Dialect：存储侧语法差异集中在此，核心只关心两种策略的参数
type Dialect interface {
	Name() string
	CellLookup(resolution int, cell string) Statement
	DistanceLookup(p model.GeoPoint, radius float64) Statement
	// PlaceholderPrefix：编号占位符前缀，$1 或 ?1
	PlaceholderPrefix() byte
	QuoteString(s string) string
}

// CellColumn：分辨率对应的列名，只由整数生成，不接受外部文本
func CellColumn(resolution int) string { return "h3_" + strconv.Itoa(resolution) }

// PostGIS：PostgreSQL + PostGIS
type PostGIS struct{}

func (PostGIS) Name() string { return "postgis" }

func (PostGIS) CellLookup(resolution int, cell string) Statement {
	return Statement{
		SQL:  "SELECT COALESCE(SUM(population), 0) FROM cities WHERE " + CellColumn(resolution) + " = $1",
		Args: []any{cell},
	}
}

func (PostGIS) DistanceLookup(p model.GeoPoint, radius float64) Statement {
	return Statement{
		SQL:  "SELECT COALESCE(SUM(population), 0) FROM cities WHERE ST_DWithin(point::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3, true)",
		Args: []any{p.Lng, p.Lat, radius},
	}
}

func (PostGIS) PlaceholderPrefix() byte { return '$' }

func (PostGIS) QuoteString(s string) string { return pq.QuoteLiteral(s) }

// SQLite：内嵌存储，距离判定依赖注册的 st_distance_spheroid 函数
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) CellLookup(resolution int, cell string) Statement {
	return Statement{
		SQL:  "SELECT COALESCE(SUM(population), 0) FROM cities WHERE " + CellColumn(resolution) + " = ?1",
		Args: []any{cell},
	}
}

func (SQLite) DistanceLookup(p model.GeoPoint, radius float64) Statement {
	return Statement{
		SQL:  "SELECT COALESCE(SUM(population), 0) FROM cities WHERE st_distance_spheroid(lat, lng, ?1, ?2) <= ?3",
		Args: []any{p.Lat, p.Lng, radius},
	}
}

func (SQLite) PlaceholderPrefix() byte { return '?' }

func (SQLite) QuoteString(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }

// DialectByName：配置中的存储名到方言
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgis":
		return PostGIS{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	}
	return nil, fmt.Errorf("unknown dialect %q", name)
}

// Materialize：把绑定参数展开为字面量，得到写入语料文件的完整查询文本
// 约束：单遍扫描，已展开的字面量不会被再次替换；字符串一律经方言转义
func Materialize(d Dialect, st Statement) (string, error) {
	prefix := d.PlaceholderPrefix()
	var sb strings.Builder
	src := st.SQL
	for i := 0; i < len(src); i++ {
		if src[i] != prefix {
			sb.WriteByte(src[i])
			continue
		}
		j := i + 1
		for j < len(src) && src[j] >= '0' && src[j] <= '9' {
			j++
		}
		if j == i+1 {
			sb.WriteByte(src[i])
			continue
		}
		n, _ := strconv.Atoi(src[i+1 : j])
		if n < 1 || n > len(st.Args) {
			return "", fmt.Errorf("placeholder %s has no argument", src[i:j])
		}
		lit, err := literal(d, st.Args[n-1])
		if err != nil {
			return "", err
		}
		sb.WriteString(lit)
		i = j - 1
	}
	return sb.String(), nil
}

func literal(d Dialect, v any) (string, error) {
	switch x := v.(type) {
	case string:
		return d.QuoteString(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	}
	return "", fmt.Errorf("unsupported literal type %T", v)
}
