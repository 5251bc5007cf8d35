package sky

import "math"

// ComputeFOV returns the angular extent of the sensor:
// 2·atan((pitch·pixels/2000)/focal) per axis, in degrees.
func ComputeFOV(c CameraSpec) (FieldOfView, error) {
	if c.FocalLengthMm <= 0 || c.SensorWidthPx <= 0 || c.SensorHeightPx <= 0 || c.PixelPitchMicrons <= 0 {
		return FieldOfView{}, Validationf("focal length, pixel pitch and sensor dimensions must be positive")
	}
	return FieldOfView{
		WidthDeg:  axisFOV(c.PixelPitchMicrons, c.SensorWidthPx, c.FocalLengthMm),
		HeightDeg: axisFOV(c.PixelPitchMicrons, c.SensorHeightPx, c.FocalLengthMm),
	}, nil
}

func axisFOV(pitchMicrons float64, pixels int, focalMm float64) float64 {
	halfSensorMm := pitchMicrons * float64(pixels) / 2000
	return 2 * math.Atan(halfSensorMm/focalMm) * 180 / math.Pi
}
