package spatial

import (
	"fmt"

	"github.com/tidwall/geodesic"
)

// EdgeLengthMeters：H3 各分辨率六边形平均边长（米）
// 约束：必须与 Index 的分辨率语义一致，下标即分辨率
var EdgeLengthMeters = [16]float64{
	1107712.591,
	418676.0055,
	158244.6558,
	59810.85794,
	22606.3794,
	8544.408276,
	3229.482772,
	1220.629759,
	461.3546837,
	174.3756681,
	65.90780749,
	24.9105614,
	9.415526211,
	3.559893033,
	1.348574562,
	0.509713273,
}

// RadiusFor：分辨率对应的查询半径
func RadiusFor(resolution int) (float64, error) {
	if resolution < 0 || resolution >= len(EdgeLengthMeters) {
		return 0, fmt.Errorf("resolution %d out of range [0, %d]", resolution, len(EdgeLengthMeters)-1)
	}
	return EdgeLengthMeters[resolution], nil
}

// SpheroidDistance：WGS84 椭球上两点的测地距离（米），GeographicLib 反算
// 约束：对跖点附近同样收敛，与 ST_DWithin(geography, geography, r, true) 的椭球口径一致
func SpheroidDistance(lat1, lng1, lat2, lng2 float64) float64 {
	var s12 float64
	geodesic.WGS84.Inverse(lat1, lng1, lat2, lng2, &s12, nil, nil)
	return s12
}
