package query

import (
	"h3-perf/internal/bencherr"
	"h3-perf/internal/model"
	"h3-perf/internal/spatial"

	"github.com/google/uuid"
)

// PairsPerRecord：每条记录生成的描述符数量（每个分辨率一对）
const PairsPerRecord = 2 * model.Resolutions

// Builder：为采样记录生成等价的 H3 / 距离查询对
type Builder struct {
	dialect Dialect
	newID   func() string
}

func NewBuilder(d Dialect) *Builder {
	return &Builder{dialect: d, newID: uuid.NewString}
}

// WithIDs：替换描述符 id 生成器
func (b *Builder) WithIDs(f func() string) *Builder {
	b.newID = f
	return b
}

func (b *Builder) Dialect() Dialect { return b.dialect }

// BuildPairs：对分辨率 0..15 各生成一条 CellLookup 与一条 DistanceLookup
// 约束：两者共享分辨率与原点；任一失败则整条记录不产出描述符
func (b *Builder) BuildPairs(r model.IndexedRecord) ([]model.QueryDescriptor, error) {
	if err := r.Point.Validate(); err != nil {
		return nil, bencherr.Wrap(bencherr.KindInvalidInput, r.Ref(), "bad point", err)
	}
	out := make([]model.QueryDescriptor, 0, PairsPerRecord)
	for res := 0; res < model.Resolutions; res++ {
		if r.Cells[res] == "" {
			return nil, bencherr.InvalidInput(r.Ref(), "missing cell for %s", CellColumn(res))
		}
		cell, err := b.describeCell(b.newID(), res, r.Point, r.Cells[res])
		if err != nil {
			return nil, err
		}
		dist, err := b.describeDistance(b.newID(), res, r.Point)
		if err != nil {
			return nil, err
		}
		out = append(out, cell, dist)
	}
	return out, nil
}

// Rebuild：由语料文件中的 (类型, 分辨率, 坐标) 重新推导描述符
// 背景：H3 单元可由坐标确定性地重算，因此无需信任文件中的查询文本
func (b *Builder) Rebuild(id string, s model.Strategy, resolution int, p model.GeoPoint) (model.QueryDescriptor, error) {
	if resolution < 0 || resolution >= model.Resolutions {
		return model.QueryDescriptor{}, bencherr.InvalidInput(id, "resolution %d out of range", resolution)
	}
	switch s {
	case model.CellLookup:
		cells, err := spatial.Index(p)
		if err != nil {
			return model.QueryDescriptor{}, bencherr.Wrap(bencherr.KindInvalidInput, id, "bad point", err)
		}
		return b.describeCell(id, resolution, p, cells[resolution])
	case model.DistanceLookup:
		return b.describeDistance(id, resolution, p)
	}
	return model.QueryDescriptor{}, bencherr.InvalidInput(id, "unknown query type %q", s)
}

// Statement：描述符到绑定语句，执行侧只使用该结果
func (b *Builder) Statement(d model.QueryDescriptor) Statement {
	if d.Strategy == model.CellLookup {
		return b.dialect.CellLookup(d.Resolution, d.Cell)
	}
	return b.dialect.DistanceLookup(d.Point, d.Radius)
}

func (b *Builder) describeCell(id string, res int, p model.GeoPoint, cell string) (model.QueryDescriptor, error) {
	d := model.QueryDescriptor{
		ID:         id,
		Strategy:   model.CellLookup,
		Resolution: res,
		Point:      p,
		Cell:       cell,
	}
	return b.materialize(d)
}

func (b *Builder) describeDistance(id string, res int, p model.GeoPoint) (model.QueryDescriptor, error) {
	radius, err := spatial.RadiusFor(res)
	if err != nil {
		return model.QueryDescriptor{}, bencherr.Wrap(bencherr.KindInvalidInput, id, "radius", err)
	}
	d := model.QueryDescriptor{
		ID:         id,
		Strategy:   model.DistanceLookup,
		Resolution: res,
		Point:      p,
		Radius:     radius,
	}
	return b.materialize(d)
}

func (b *Builder) materialize(d model.QueryDescriptor) (model.QueryDescriptor, error) {
	q, err := Materialize(b.dialect, b.Statement(d))
	if err != nil {
		return model.QueryDescriptor{}, bencherr.Wrap(bencherr.KindInvalidInput, d.ID, "materialize query", err)
	}
	d.Query = q
	return d, nil
}
