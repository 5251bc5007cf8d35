package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/api/status/:sub_id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusServiceUnavailable, "down")
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/status/:sub_id", "GET", "200"))
	for _, id := range []string{"1", "22", "333"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/status/"+id, nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/status/:sub_id", "GET", "200"))
	if after-before != 3 {
		t.Errorf("expected 3 requests under one route label, got %v", after-before)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/boom", "GET", "503")); got != 1 {
		t.Errorf("expected the fiber error status to be recorded, got %v", got)
	}
}

func TestObservePlateSolve(t *testing.T) {
	ObservePlateSolve("login", nil)
	ObservePlateSolve("login", errors.New("nope"))

	if got := testutil.ToFloat64(plateSolveCallsTotal.WithLabelValues("login", "ok")); got < 1 {
		t.Errorf("ok count = %v", got)
	}
	if got := testutil.ToFloat64(plateSolveCallsTotal.WithLabelValues("login", "error")); got < 1 {
		t.Errorf("error count = %v", got)
	}
}
