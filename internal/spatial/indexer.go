// 包 spatial：H3 多分辨率索引、分辨率距离表与椭球距离
package spatial

import (
	"h3-perf/internal/model"

	"github.com/uber/h3-go/v4"
)

// Index：计算点在分辨率 0..15 上的 H3 单元标识
// 约束：每个分辨率独立计算（不由细粒度单元推导父单元）；非法坐标返回 InvalidInputError
func Index(p model.GeoPoint) ([model.Resolutions]string, error) {
	var cells [model.Resolutions]string
	if err := p.Validate(); err != nil {
		return cells, err
	}
	ll := h3.NewLatLng(p.Lat, p.Lng)
	for res := 0; res < model.Resolutions; res++ {
		cells[res] = h3.LatLngToCell(ll, res).String()
	}
	return cells, nil
}

// IndexRecord：为记录填充 Cells
func IndexRecord(r *model.IndexedRecord) error {
	cells, err := Index(r.Point)
	if err != nil {
		return err
	}
	r.Cells = cells
	return nil
}
