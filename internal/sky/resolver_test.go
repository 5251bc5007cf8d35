package sky

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

type fakeGeocoder struct {
	lat, lon float64
	err      error
	calls    int
}

func (g *fakeGeocoder) Locate(ctx context.Context, city, country string) (float64, float64, error) {
	g.calls++
	return g.lat, g.lon, g.err
}

func ptr(v float64) *float64 { return &v }

func testResolver(t *testing.T, g Geocoder) *Resolver {
	t.Helper()
	cat, err := NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	r := NewResolver(cat, g)
	r.Now = func() time.Time { return time.Date(2024, 10, 1, 22, 0, 0, 0, time.UTC) }
	return r
}

func TestResolveExplicitPassThrough(t *testing.T) {
	r := testResolver(t, nil)

	tests := []struct {
		name string
		obs  ObserverSpec
		want SkyCoordinate
	}{
		{"ra/dec only", ObserverSpec{RA: ptr(10), Dec: ptr(41)}, SkyCoordinate{10, 41}},
		{"ra/dec wins over target", ObserverSpec{RA: ptr(123.4), Dec: ptr(-12.5), TargetName: "M31", Longitude: ptr(0), Latitude: ptr(51)}, SkyCoordinate{123.4, -12.5}},
		{"ra/dec wins over unknown target", ObserverSpec{RA: ptr(359.9), Dec: ptr(89.9), TargetName: "nowhere"}, SkyCoordinate{359.9, 89.9}},
		{"ra/dec ignores unused bad location", ObserverSpec{RA: ptr(10), Dec: ptr(41), Longitude: ptr(500), Latitude: ptr(-120)}, SkyCoordinate{10, 41}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.obs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveFailures(t *testing.T) {
	r := testResolver(t, nil)

	tests := []struct {
		name string
		obs  ObserverSpec
	}{
		{"nothing given", ObserverSpec{}},
		{"only ra", ObserverSpec{RA: ptr(10), Longitude: ptr(0), Latitude: ptr(0)}},
		{"unknown target", ObserverSpec{TargetName: "Planet X", Longitude: ptr(0), Latitude: ptr(0)}},
		{"missing location", ObserverSpec{TargetName: "M31"}},
		{"latitude out of range", ObserverSpec{TargetName: "M31", Longitude: ptr(0), Latitude: ptr(95)}},
		{"dec out of range", ObserverSpec{RA: ptr(10), Dec: ptr(-91)}},
		{"city without geocoder", ObserverSpec{TargetName: "M31", City: "Berlin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.obs)
			if !errors.Is(err, ErrCoordinateResolution) {
				t.Errorf("expected coordinate resolution error, got %v", err)
			}
		})
	}
}

func TestResolveTargetNearCatalogPosition(t *testing.T) {
	r := testResolver(t, nil)

	pos, err := r.Locate(context.Background(), ObserverSpec{
		TargetName: "andromeda galaxy",
		Longitude:  ptr(-71.06),
		Latitude:   ptr(42.36),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Nutation and aberration move the apparent place by well under an
	// arcminute.
	if d := angularSeparation(pos.SkyCoordinate, SkyCoordinate{RA: 10.6847, Dec: 41.2690}); d > 1.0/60 {
		t.Errorf("apparent position %v is %.4f deg from the catalog position", pos.SkyCoordinate, d)
	}
	if !pos.Horizontal {
		t.Errorf("expected a horizontal position for a named target")
	}
	if pos.Azimuth < 0 || pos.Azimuth >= 360 || pos.Altitude < -90 || pos.Altitude > 90 {
		t.Errorf("horizontal position out of range: az %.2f alt %.2f", pos.Azimuth, pos.Altitude)
	}
}

func TestResolveUsesGeocoder(t *testing.T) {
	g := &fakeGeocoder{lat: 52.52, lon: 13.40}
	r := testResolver(t, g)

	if _, err := r.Resolve(context.Background(), ObserverSpec{TargetName: "M42", City: "Berlin", Country: "DE"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.calls != 1 {
		t.Errorf("geocoder called %d times, want 1", g.calls)
	}

	// Explicit coordinates skip the geocoder.
	if _, err := r.Resolve(context.Background(), ObserverSpec{TargetName: "M42", City: "Berlin", Longitude: ptr(13.4), Latitude: ptr(52.5)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.calls != 1 {
		t.Errorf("geocoder should not be consulted when longitude/latitude are given")
	}

	g.err = errors.New("quota exceeded")
	if _, err := r.Resolve(context.Background(), ObserverSpec{TargetName: "M42", City: "Berlin"}); !errors.Is(err, ErrCoordinateResolution) {
		t.Errorf("expected coordinate resolution error, got %v", err)
	}
}

func TestApparentPositionAltitudeFollowsLatitude(t *testing.T) {
	// Polaris never sets far from the pole: its altitude tracks latitude.
	polaris := SkyCoordinate{RA: 37.9546, Dec: 89.2641}
	at := time.Date(2025, 3, 20, 3, 0, 0, 0, time.UTC)

	for _, lat := range []float64{20, 45, 70} {
		pos := ApparentPosition(polaris, lat, 10, at)
		if math.Abs(pos.Altitude-lat) > 1 {
			t.Errorf("latitude %.0f: Polaris altitude %.2f", lat, pos.Altitude)
		}
	}
}

func angularSeparation(a, b SkyCoordinate) float64 {
	const rad = math.Pi / 180
	cos := math.Sin(a.Dec*rad)*math.Sin(b.Dec*rad) +
		math.Cos(a.Dec*rad)*math.Cos(b.Dec*rad)*math.Cos((a.RA-b.RA)*rad)
	return math.Acos(math.Min(1, cos)) / rad
}
