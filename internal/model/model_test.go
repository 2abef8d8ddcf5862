package model

import (
	"errors"
	"math"
	"testing"

	"h3-perf/internal/bencherr"

	"github.com/stretchr/testify/assert"
)

func TestGeoPoint_Validate(t *testing.T) {
	cases := []struct {
		name string
		p    GeoPoint
		ok   bool
	}{
		{"origin", GeoPoint{0, 0}, true},
		{"corners", GeoPoint{-90, 180}, true},
		{"lat too high", GeoPoint{90.0001, 0}, false},
		{"lng too low", GeoPoint{0, -180.5}, false},
		{"nan", GeoPoint{math.NaN(), 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, bencherr.ErrInvalidInput))
		})
	}
}

func TestGeoPoint_OrbOrder(t *testing.T) {
	p := GeoPoint{Lat: 52.52, Lng: 13.405}
	assert.Equal(t, 13.405, p.Orb().Lon())
	assert.Equal(t, 52.52, p.Orb().Lat())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("H3")
	assert.NoError(t, err)
	assert.Equal(t, CellLookup, s)
	s, err = ParseStrategy("POSTGIS")
	assert.NoError(t, err)
	assert.Equal(t, DistanceLookup, s)
	_, err = ParseStrategy("h3")
	assert.True(t, errors.Is(err, bencherr.ErrInvalidInput))
}
