package sky

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field names the way clients send them.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the camera parameters. maxPixels bounds the output
// raster; zero leaves only the per-axis cap.
func (c CameraSpec) Validate(maxPixels int) error {
	if err := validate.Struct(c); err != nil {
		return Validationf("missing or invalid camera parameters: %s", describe(err))
	}
	// Divide rather than multiply so huge dimensions cannot wrap around.
	if maxPixels > 0 && c.SensorWidthPx > maxPixels/c.SensorHeightPx {
		return Validationf("sensor of %dx%d pixels exceeds the %d pixel render limit",
			c.SensorWidthPx, c.SensorHeightPx, maxPixels)
	}
	return nil
}

// Validate checks the observer fields that are present. Whether enough of
// them are present is decided by the resolver.
func (o ObserverSpec) Validate() error {
	if err := validate.Struct(o); err != nil {
		return newError(KindCoordinateResolution, nil, "invalid observer fields: %s", describe(err))
	}
	return nil
}

// describe flattens validator errors into "field (rule)" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s (%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, ", ")
}
