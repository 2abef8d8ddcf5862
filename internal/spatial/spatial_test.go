package spatial

import (
	"errors"
	"testing"

	"h3-perf/internal/bencherr"
	"h3-perf/internal/model"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/h3-go/v4"
)

func TestProperty_IndexIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("index returns 16 identifiers and repeats exactly", prop.ForAll(
		func(lat, lng float64) bool {
			p := model.GeoPoint{Lat: lat, Lng: lng}
			a, err := Index(p)
			if err != nil {
				return false
			}
			b, err := Index(p)
			if err != nil {
				return false
			}
			if len(a) != model.Resolutions {
				return false
			}
			for i := range a {
				if a[i] == "" || a[i] != b[i] {
					return false
				}
			}
			return true
		},
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
	))

	properties.TestingRun(t)
}

func TestIndex_CellResolutionMatchesSlot(t *testing.T) {
	cells, err := Index(model.GeoPoint{Lat: 52.52437, Lng: 13.41053})
	require.NoError(t, err)
	for res, s := range cells {
		c := h3.Cell(h3.IndexFromString(s))
		assert.True(t, c.IsValid(), "res %d", res)
		assert.Equal(t, res, c.Resolution())
	}
	assert.NotEqual(t, cells[0], cells[15])
}

func TestIndex_RejectsInvalidCoordinates(t *testing.T) {
	_, err := Index(model.GeoPoint{Lat: 123, Lng: 0})
	assert.True(t, errors.Is(err, bencherr.ErrInvalidInput))
	_, err = Index(model.GeoPoint{Lat: 0, Lng: 181})
	assert.True(t, errors.Is(err, bencherr.ErrInvalidInput))
}

func TestIndexRecord(t *testing.T) {
	r := model.IndexedRecord{ID: 3, Point: model.GeoPoint{Lat: -33.8688, Lng: 151.2093}}
	require.NoError(t, IndexRecord(&r))
	want, _ := Index(r.Point)
	assert.Equal(t, want, r.Cells)
}

func TestEdgeLengthMeters(t *testing.T) {
	assert.Equal(t, 1107712.591, EdgeLengthMeters[0])
	for i := 1; i < len(EdgeLengthMeters); i++ {
		assert.Less(t, EdgeLengthMeters[i], EdgeLengthMeters[i-1])
	}
	r, err := RadiusFor(15)
	require.NoError(t, err)
	assert.Equal(t, 0.509713273, r)
	_, err = RadiusFor(16)
	assert.Error(t, err)
	_, err = RadiusFor(-1)
	assert.Error(t, err)
}

func TestSpheroidDistance_FlindersPeak(t *testing.T) {
	// Flinders Peak -> Buninyong
	d := SpheroidDistance(-37.95103342, 144.42486789, -37.65282114, 143.92649554)
	assert.InDelta(t, 54972.2705, d, 0.001)
	assert.Zero(t, SpheroidDistance(10, 20, 10, 20))
}

func TestSpheroidDistance_CloseToSphere(t *testing.T) {
	pairs := [][4]float64{
		{52.52, 13.405, 48.8566, 2.3522},
		{40.7128, -74.006, 34.0522, -118.2437},
		{0, 0, 0, 90},
		{-33.8688, 151.2093, 35.6762, 139.6503},
	}
	for _, p := range pairs {
		got := SpheroidDistance(p[0], p[1], p[2], p[3])
		sphere := geo.Distance(model.GeoPoint{Lat: p[0], Lng: p[1]}.Orb(), model.GeoPoint{Lat: p[2], Lng: p[3]}.Orb())
		assert.InEpsilon(t, sphere, got, 0.006)
	}
}

func TestSpheroidDistance_NearAntipodal(t *testing.T) {
	// 最短测地线经由高纬度，方位角约 15.557°
	d := SpheroidDistance(0, 0, 0.5, 179.7)
	assert.InDelta(t, 19944127.421, d, 0.01)
	// 球面近似在此处偏差约 6 km
	sphere := geo.Distance(model.GeoPoint{Lat: 0, Lng: 0}.Orb(), model.GeoPoint{Lat: 0.5, Lng: 179.7}.Orb())
	assert.Greater(t, sphere-d, 5000.0)

	// 赤道上的对跖点
	assert.InDelta(t, 20003931.4586, SpheroidDistance(0, 0, 0, 180), 0.01)
}
