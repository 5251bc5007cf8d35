package httpapi

import (
	"bytes"
	"errors"
	"io"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/skyview/skyview-reprojection/internal/platesolve"
	"github.com/skyview/skyview-reprojection/internal/sky"
)

// maxUploadBytes bounds images forwarded to the plate solver.
const maxUploadBytes = 32 << 20

// RegisterRoutes wires the HTTP handlers into the Fiber app. solver may be
// nil, in which case the plate-solving routes answer 503.
func RegisterRoutes(app *fiber.App, renderer *sky.Service, solver *platesolve.Service) {
	api := app.Group("/api")

	api.Post("/get_skymap_crop", func(c *fiber.Ctx) error {
		var body renderBody
		if err := c.BodyParser(&body); err != nil {
			return sky.Validationf("request body: %v", err)
		}

		out, err := renderer.Render(c.UserContext(), body.toRequest())
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := sky.EncodePNG(&buf, out); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(buf.Bytes())
	})

	api.Post("/get_declination", func(c *fiber.Ctx) error {
		var obs sky.ObserverSpec
		if err := c.BodyParser(&obs); err != nil {
			return sky.Validationf("request body: %v", err)
		}

		pos, err := renderer.Declination(c.UserContext(), obs)
		if err != nil {
			if errors.Is(err, sky.ErrCoordinateResolution) {
				return fiber.NewError(fiber.StatusNotFound, "Could not find coordinates. "+err.Error())
			}
			return err
		}
		return c.JSON(declinationResponse(pos))
	})

	api.Post("/upload", func(c *fiber.Ctx) error {
		if solver == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "plate solving is not configured")
		}
		fh, err := c.FormFile("image")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No image file in request.")
		}
		if fh.Size > maxUploadBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "image file is too large")
		}

		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}

		sub, err := solver.Upload(c.UserContext(), fh.Filename, data)
		if err != nil {
			if errors.Is(err, platesolve.ErrNoImage) {
				return fiber.NewError(fiber.StatusBadRequest, "No image file in request.")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"sub_id": sub.SubID})
	})

	api.Get("/status/:sub_id", func(c *fiber.Ctx) error {
		if solver == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "plate solving is not configured")
		}
		subID, err := c.ParamsInt("sub_id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "sub_id must be an integer")
		}

		sub, err := solver.Status(c.UserContext(), subID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"status":              sub.Status,
			"job_id":              sub.JobID,
			"annotated_image_url": sub.AnnotatedImageURL,
		})
	})

	api.Get("/results/:job_id", func(c *fiber.Ctx) error {
		if solver == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "plate solving is not configured")
		}
		jobID, err := c.ParamsInt("job_id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "job_id must be an integer")
		}

		anns, err := solver.Results(c.UserContext(), jobID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"annotations": anns})
	})
}

// ErrorHandler renders every failure as {"error", "kind"} with a status
// derived from the error kind.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	kind := string(sky.KindInternal)

	var se *sky.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &se):
		code = StatusFor(se.Kind)
		kind = string(se.Kind)
	case errors.As(err, &fe):
		code = fe.Code
		kind = "http"
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Method(), c.Path(), err)
	}

	msg := err.Error()
	if se != nil {
		msg = se.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"error": msg,
		"kind":  kind,
	})
}

// StatusFor maps an engine error kind to an HTTP status.
func StatusFor(kind sky.Kind) int {
	switch kind {
	case sky.KindValidation:
		return fiber.StatusBadRequest
	case sky.KindCoordinateResolution:
		return fiber.StatusNotFound
	case sky.KindSkyMapUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
