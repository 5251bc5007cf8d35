package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
)

func TestNewRequiresKey(t *testing.T) {
	if _, err := New("  "); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLocateCaches(t *testing.T) {
	calls := 0
	c := newClient(func(a geocoder.Address) (geocoder.Location, error) {
		calls++
		if a.City != "Lisbon" || a.Country != "PT" {
			t.Errorf("unexpected address %+v", a)
		}
		return geocoder.Location{Latitude: 38.72, Longitude: -9.14}, nil
	})

	for i := 0; i < 3; i++ {
		lat, lon, err := c.Locate(context.Background(), "Lisbon", "PT")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lat != 38.72 || lon != -9.14 {
			t.Errorf("got %v,%v", lat, lon)
		}
	}
	if calls != 1 {
		t.Errorf("lookup called %d times, want 1", calls)
	}
}

func TestLocateErrors(t *testing.T) {
	c := newClient(func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	})
	if _, _, err := c.Locate(context.Background(), "Atlantis", ""); err == nil {
		t.Fatal("expected an error")
	}

	block := make(chan struct{})
	defer close(block)
	slow := newClient(func(geocoder.Address) (geocoder.Location, error) {
		<-block
		return geocoder.Location{}, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, _, err := slow.Locate(ctx, "Slowtown", ""); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
