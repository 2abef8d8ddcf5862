// 包 workload：原始城市数据导入、采样、语料生成与文件编解码
package workload

import (
	"encoding/csv"
	"errors"
	"h3-perf/internal/bencherr"
	"h3-perf/internal/model"
	"io"
	"strconv"
	"strings"
)

// RawRow：原始 geonames 行中参与基准的字段
type RawRow struct {
	Line       int
	Name       string
	Population int64
	Point      model.GeoPoint
}

// rawColumns：按表头名定位，表头先规整为小写下划线形式（"ASCII Name" -> ascii_name）
var rawColumns = []string{"ascii_name", "population", "coordinates"}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	return strings.ReplaceAll(strings.ToLower(h), " ", "_")
}

// RawReader：逐行读取 ';' 分隔的原始文件
type RawReader struct {
	cr   *csv.Reader
	idx  map[string]int
	line int
}

// NewRawReader：读取并校验表头
func NewRawReader(r io.Reader) (*RawReader, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		return nil, bencherr.Wrap(bencherr.KindInvalidInput, "line 1", "raw header", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	for _, c := range rawColumns {
		if _, ok := idx[c]; !ok {
			return nil, bencherr.InvalidInput("line 1", "raw header missing column %q", c)
		}
	}
	return &RawReader{cr: cr, idx: idx, line: 1}, nil
}

// Next：返回下一行；读完返回 io.EOF
// 约束：population 为空按 0 处理；坐标缺失或越界返回 InvalidInputError
func (r *RawReader) Next() (RawRow, error) {
	rec, err := r.cr.Read()
	r.line++
	if errors.Is(err, io.EOF) {
		return RawRow{}, io.EOF
	}
	ref := "line " + strconv.Itoa(r.line)
	if err != nil {
		return RawRow{}, bencherr.Wrap(bencherr.KindInvalidInput, ref, "raw row", err)
	}
	field := func(name string) (string, error) {
		i := r.idx[name]
		if i >= len(rec) {
			return "", bencherr.InvalidInput(ref, "missing column %q", name)
		}
		return strings.TrimSpace(rec[i]), nil
	}
	row := RawRow{Line: r.line}
	if row.Name, err = field("ascii_name"); err != nil {
		return RawRow{}, err
	}
	pop, err := field("population")
	if err != nil {
		return RawRow{}, err
	}
	if pop != "" {
		if row.Population, err = strconv.ParseInt(pop, 10, 64); err != nil {
			return RawRow{}, bencherr.Wrap(bencherr.KindInvalidInput, ref, "population", err)
		}
	}
	coords, err := field("coordinates")
	if err != nil {
		return RawRow{}, err
	}
	if row.Point, err = ParseCoordinates(coords); err != nil {
		return RawRow{}, bencherr.Wrap(bencherr.KindInvalidInput, ref, "coordinates", err)
	}
	return row, nil
}

// ParseCoordinates：解析 "lat,lng"
func ParseCoordinates(s string) (model.GeoPoint, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return model.GeoPoint{}, bencherr.InvalidInput("", "coordinates %q are not a \"lat,lng\" pair", s)
	}
	return parsePoint(strings.TrimSpace(lat), strings.TrimSpace(lng))
}
