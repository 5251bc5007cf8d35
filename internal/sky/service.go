package sky

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/skyview/skyview-reprojection/internal/metrics"
	"github.com/skyview/skyview-reprojection/internal/reproject"
	"github.com/skyview/skyview-reprojection/internal/sky/wcs"
)

// Source supplies the region of the sky map a field of view needs.
type Source interface {
	// Mode names the source for logs and metrics.
	Mode() string
	// Ready returns a SkyMapUnavailable error when the source can never
	// serve a render.
	Ready() error
	// Prepare returns a raster covering the field of view around center.
	Prepare(ctx context.Context, center SkyCoordinate, fov FieldOfView) (*SourceRaster, error)
}

// Service renders camera frames from a sky map.
type Service struct {
	resolver  *Resolver
	source    Source
	maxPixels int

	// Workers caps resampling concurrency; zero means GOMAXPROCS.
	Workers int
}

// NewService creates a new Service. maxPixels bounds the sensor size a
// request may ask for; zero disables the bound.
func NewService(resolver *Resolver, source Source, maxPixels int) *Service {
	return &Service{
		resolver:  resolver,
		source:    source,
		maxPixels: maxPixels,
	}
}

// SourceReady reports whether renders can be served at all.
func (s *Service) SourceReady() error {
	if s.source == nil {
		return Unavailable(nil, "no sky map source configured")
	}
	return s.source.Ready()
}

// Render produces the frame the camera would see.
func (s *Service) Render(ctx context.Context, req RenderRequest) (*OutputRaster, error) {
	id := uuid.NewString()
	start := time.Now()

	out, err := s.render(ctx, id, req)

	mode := "none"
	if s.source != nil {
		mode = s.source.Mode()
	}
	if err != nil {
		log.Printf("ERROR: render %s failed after %s: %v", id, time.Since(start).Round(time.Millisecond), err)
		metrics.ObserveRender(mode, string(KindOf(err)))
		return nil, err
	}
	log.Printf("INFO: render %s: %dx%d px at %s in %s", id,
		req.Camera.SensorWidthPx, req.Camera.SensorHeightPx, out.Center, time.Since(start).Round(time.Millisecond))
	metrics.ObserveRender(mode, "ok")
	return out, nil
}

func (s *Service) render(ctx context.Context, id string, req RenderRequest) (*OutputRaster, error) {
	if err := req.Camera.Validate(s.maxPixels); err != nil {
		return nil, err
	}
	fov, err := ComputeFOV(req.Camera)
	if err != nil {
		return nil, err
	}
	if err := s.SourceReady(); err != nil {
		return nil, err
	}

	t := time.Now()
	center, err := s.resolver.Resolve(ctx, req.Observer)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage("resolve", t)
	log.Printf("DEBUG: render %s: center %s, fov %.4f x %.4f deg", id, center, fov.WidthDeg, fov.HeightDeg)

	t = time.Now()
	src, err := s.source.Prepare(ctx, center, fov)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage("source", t)

	w, h := req.Camera.SensorWidthPx, req.Camera.SensorHeightPx
	def := wcs.Centered(wcs.Gnomonic, w, h, center.RA, center.Dec, -fov.WidthDeg/float64(w), fov.HeightDeg/float64(h))
	if err := def.Validate(); err != nil {
		return nil, newError(KindProjection, err, "output projection")
	}

	t = time.Now()
	pixels, err := reproject.RGB(ctx, src.Pixels, src.Projection, def, w, h, reproject.Options{Workers: s.Workers})
	switch {
	case errors.Is(err, wcs.ErrInvalid):
		return nil, newError(KindProjection, err, "reprojection")
	case err != nil:
		return nil, Internal(err, "reprojection")
	}
	metrics.ObserveStage("reproject", t)

	return &OutputRaster{
		Pixels:     pixels,
		Projection: def,
		Center:     center,
		FOV:        fov,
	}, nil
}

// Declination resolves the pointing without rendering anything.
func (s *Service) Declination(ctx context.Context, obs ObserverSpec) (Position, error) {
	return s.resolver.Locate(ctx, obs)
}
