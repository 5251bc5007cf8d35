package sky

import (
	"fmt"

	"github.com/skyview/skyview-reprojection/internal/raster"
	"github.com/skyview/skyview-reprojection/internal/sky/wcs"
)

// SkyCoordinate is an ICRS position in degrees.
type SkyCoordinate struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

func (c SkyCoordinate) String() string {
	return fmt.Sprintf("RA %.2f, Dec %.2f", c.RA, c.Dec)
}

// Position is a resolved coordinate together with where it sits in the
// observer's sky. Azimuth and Altitude are only meaningful when Horizontal
// is set.
type Position struct {
	SkyCoordinate
	Azimuth    float64 `json:"azimuth,omitempty"`  // degrees, 0=N, 90=E
	Altitude   float64 `json:"altitude,omitempty"` // degrees above the horizon
	Horizontal bool    `json:"-"`
}

// ObserverSpec says where the camera points. Either RA/Dec are both given,
// or a catalog target plus the observer's location.
type ObserverSpec struct {
	RA  *float64 `json:"ra"`
	Dec *float64 `json:"dec" validate:"omitempty,gte=-90,lte=90"`

	TargetName string   `json:"target_name"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`

	// City/Country locate the observer when longitude/latitude are absent.
	City    string `json:"city"`
	Country string `json:"country"`
}

// Explicit reports whether RA and Dec were given directly.
func (o ObserverSpec) Explicit() bool {
	return o.RA != nil && o.Dec != nil
}

// CameraSpec describes the optics and sensor.
type CameraSpec struct {
	FocalLengthMm     float64 `json:"focal_length" validate:"required,gt=0"`
	SensorWidthPx     int     `json:"sensor_width_px" validate:"required,gt=0,lte=100000"`
	SensorHeightPx    int     `json:"sensor_height_px" validate:"required,gt=0,lte=100000"`
	PixelPitchMicrons float64 `json:"pixel_pitch" validate:"required,gt=0"`
}

// FieldOfView is the angular footprint of the sensor on the sky.
type FieldOfView struct {
	WidthDeg  float64 `json:"widthDeg"`
	HeightDeg float64 `json:"heightDeg"`
}

// RenderRequest is everything needed to render one camera frame.
type RenderRequest struct {
	Camera   CameraSpec
	Observer ObserverSpec
}

// OutputRaster is a rendered frame and the projection used to produce it.
type OutputRaster struct {
	Pixels     raster.RGB
	Projection wcs.Definition
	Center     SkyCoordinate
	FOV        FieldOfView
}

// SourceRaster is a sky map region ready to be resampled.
type SourceRaster struct {
	Pixels     raster.RGB
	Projection wcs.Definition
}
