package httpapi

import "github.com/skyview/skyview-reprojection/internal/sky"

// renderBody is the flat JSON body the frontend posts for a render.
type renderBody struct {
	sky.CameraSpec
	sky.ObserverSpec
}

func (b renderBody) toRequest() sky.RenderRequest {
	return sky.RenderRequest{
		Camera:   b.CameraSpec,
		Observer: b.ObserverSpec,
	}
}

type declination struct {
	Declination float64  `json:"declination"`
	RA          float64  `json:"ra"`
	Azimuth     *float64 `json:"azimuth,omitempty"`
	Altitude    *float64 `json:"altitude,omitempty"`
}

func declinationResponse(pos sky.Position) declination {
	d := declination{Declination: pos.Dec, RA: pos.RA}
	if pos.Horizontal {
		az, alt := pos.Azimuth, pos.Altitude
		d.Azimuth, d.Altitude = &az, &alt
	}
	return d
}
