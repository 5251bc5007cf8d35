package sky

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/apparent"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/precess"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/unit"

	"github.com/skyview/skyview-reprojection/internal/sky/wcs"
)

// Geocoder turns a place into geographic latitude/longitude in degrees.
type Geocoder interface {
	Locate(ctx context.Context, city, country string) (lat, lon float64, err error)
}

// Resolver turns an ObserverSpec into a sky position.
type Resolver struct {
	catalog  *Catalog
	geocoder Geocoder

	// Now is the observation instant; replaced in tests.
	Now func() time.Time
}

// NewResolver creates a Resolver. geocoder may be nil, in which case
// observers must give longitude and latitude.
func NewResolver(catalog *Catalog, geocoder Geocoder) *Resolver {
	return &Resolver{
		catalog:  catalog,
		geocoder: geocoder,
		Now:      time.Now,
	}
}

// Resolve returns the ICRS coordinate the observer is pointing at.
func (r *Resolver) Resolve(ctx context.Context, obs ObserverSpec) (SkyCoordinate, error) {
	pos, err := r.Locate(ctx, obs)
	if err != nil {
		return SkyCoordinate{}, err
	}
	return pos.SkyCoordinate, nil
}

// Locate resolves where the observer points. Explicit RA/Dec pass through
// untouched; a named target is looked up and carried through the
// observer's horizontal frame at the current instant.
func (r *Resolver) Locate(ctx context.Context, obs ObserverSpec) (Position, error) {
	if obs.Explicit() {
		if err := validate.Var(*obs.Dec, "gte=-90,lte=90"); err != nil {
			return Position{}, newError(KindCoordinateResolution, nil, "dec %g is outside [-90, 90]", *obs.Dec)
		}
		return Position{SkyCoordinate: SkyCoordinate{RA: *obs.RA, Dec: *obs.Dec}}, nil
	}
	// The location fields only matter once the target has to be looked up.
	if err := obs.Validate(); err != nil {
		return Position{}, err
	}

	name := strings.TrimSpace(obs.TargetName)
	if name == "" {
		return Position{}, newError(KindCoordinateResolution, nil, "either ra/dec or target_name is required")
	}
	obj, ok := r.catalog.Lookup(name)
	if !ok {
		return Position{}, newError(KindCoordinateResolution, nil, "unknown target %q", name)
	}

	lat, lon, err := r.observerLocation(ctx, obs)
	if err != nil {
		return Position{}, err
	}

	pos := ApparentPosition(SkyCoordinate{RA: obj.RA, Dec: obj.Dec}, lat, lon, r.Now())
	log.Printf("DEBUG: resolved %q to %s (az %.2f, alt %.2f) for observer %.4f,%.4f",
		obj.Name, pos.SkyCoordinate, pos.Azimuth, pos.Altitude, lat, lon)
	return pos, nil
}

func (r *Resolver) observerLocation(ctx context.Context, obs ObserverSpec) (lat, lon float64, err error) {
	if obs.Latitude != nil && obs.Longitude != nil {
		return *obs.Latitude, *obs.Longitude, nil
	}
	if obs.City == "" {
		return 0, 0, newError(KindCoordinateResolution, nil, "observer longitude and latitude are required")
	}
	if r.geocoder == nil {
		return 0, 0, newError(KindCoordinateResolution, nil, "geocoding is not configured; give longitude and latitude")
	}

	lat, lon, err = r.geocoder.Locate(ctx, obs.City, obs.Country)
	if err != nil {
		return 0, 0, newError(KindCoordinateResolution, err, "could not locate observer %q", strings.Trim(obs.City+", "+obs.Country, ", "))
	}
	return lat, lon, nil
}

// ApparentPosition carries a catalog position through the observer's local
// horizontal frame at instant t and back into ICRS axes. Precession,
// nutation and annual aberration to the epoch of t are applied on the way
// out; only precession is undone on the way back, so the result is the
// apparent place of the object now.
func ApparentPosition(catalog SkyCoordinate, latDeg, lonDeg float64, t time.Time) Position {
	jd := julian.TimeToJD(t.UTC())
	epoch := base.JDEToJulianYear(jd)

	mean := &coord.Equatorial{
		RA:  unit.RAFromDeg(catalog.RA),
		Dec: unit.AngleFromDeg(catalog.Dec),
	}
	ofDate := apparent.Position(mean, &coord.Equatorial{}, 2000, epoch, 0, 0)

	// Meeus counts geographic longitude positive westward.
	φ := unit.AngleFromDeg(latDeg)
	ψ := unit.AngleFromDeg(-lonDeg)
	st := sidereal.Apparent(jd)

	az, alt := coord.EqToHz(ofDate.RA, ofDate.Dec, φ, ψ, st)
	α, δ := coord.HzToEq(az, alt, φ, ψ, st)

	icrs := precess.Position(&coord.Equatorial{RA: α, Dec: δ}, &coord.Equatorial{}, epoch, 2000, 0, 0)

	return Position{
		SkyCoordinate: SkyCoordinate{
			RA:  wcs.NormalizeRA(unit.Angle(icrs.RA).Deg()),
			Dec: icrs.Dec.Deg(),
		},
		// Meeus measures azimuth westward from south.
		Azimuth:    wcs.NormalizeRA(az.Deg() + 180),
		Altitude:   alt.Deg(),
		Horizontal: true,
	}
}
