// 包 model：基准语料的核心数据结构（点、带索引的记录、查询描述符）
package model

import (
	"h3-perf/internal/bencherr"
	"math"
	"strconv"

	"github.com/paulmach/orb"
)

// Resolutions：H3 分辨率层数，0 最粗，15 最细
const Resolutions = 16

// GeoPoint：WGS84 经纬度（度）
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Validate：纬度 [-90,90]，经度 [-180,180]，NaN 视为非法
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return bencherr.InvalidInput("", "latitude %v out of range [-90, 90]", p.Lat)
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return bencherr.InvalidInput("", "longitude %v out of range [-180, 180]", p.Lng)
	}
	return nil
}

// Orb：转换为 orb 点，注意 orb 的坐标顺序为 (lng, lat)
func (p GeoPoint) Orb() orb.Point { return orb.Point{p.Lng, p.Lat} }

// IndexedRecord：入库后的城市记录，Cells[i] 为分辨率 i 的单元标识
type IndexedRecord struct {
	ID         int64
	Name       string
	Population int64
	Point      GeoPoint
	Cells      [Resolutions]string
}

// Ref：错误上下文中使用的记录标识
func (r IndexedRecord) Ref() string { return "record " + strconv.FormatInt(r.ID, 10) }

// Strategy：参与对比的查询方式
type Strategy string

const (
	// CellLookup：按 h3_i 列等值匹配
	CellLookup Strategy = "H3"
	// DistanceLookup：按椭球距离 ST_DWithin 匹配
	DistanceLookup Strategy = "POSTGIS"
)

// Strategies：报告输出顺序
var Strategies = []Strategy{CellLookup, DistanceLookup}

// ParseStrategy：语料文件 type 列解析
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case CellLookup, DistanceLookup:
		return Strategy(s), nil
	}
	return "", bencherr.InvalidInput("", "unknown query type %q", s)
}

// QueryDescriptor：尚未执行的单条查询及其计量元数据
// 约束：Cell 仅对 CellLookup 有值，Radius 仅对 DistanceLookup 有值
type QueryDescriptor struct {
	ID         string
	Strategy   Strategy
	Resolution int
	Point      GeoPoint
	Cell       string
	Radius     float64
	Query      string
}
