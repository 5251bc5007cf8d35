// Package geocode turns an observer's city and country into coordinates
// using the Google Maps geocoding API.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("geocoder API key is not configured")

type lookupFunc func(geocoder.Address) (geocoder.Location, error)

// Client resolves places and remembers the answers for the life of the
// process; cities do not move.
type Client struct {
	lookup lookupFunc

	mu    sync.RWMutex
	cache map[string]geocoder.Location
}

// New creates a Client. The geocoder package keeps its key globally, so
// only one Client should be configured per process.
func New(apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	geocoder.ApiKey = apiKey
	return newClient(geocoder.Geocoding), nil
}

func newClient(lookup lookupFunc) *Client {
	return &Client{
		lookup: lookup,
		cache:  make(map[string]geocoder.Location),
	}
}

// Locate returns latitude and longitude in degrees.
func (c *Client) Locate(ctx context.Context, city, country string) (float64, float64, error) {
	key := strings.ToLower(strings.TrimSpace(city) + ":" + strings.TrimSpace(country))

	c.mu.RLock()
	loc, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return loc.Latitude, loc.Longitude, nil
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		loc, err := c.lookup(geocoder.Address{City: city, Country: country})
		done <- result{loc, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	case r = <-done:
	}
	if r.err != nil {
		return 0, 0, fmt.Errorf("geocode %s, %s: %w", city, country, r.err)
	}

	log.Printf("DEBUG: geocoded %s, %s to %.4f,%.4f", city, country, r.loc.Latitude, r.loc.Longitude)
	c.mu.Lock()
	c.cache[key] = r.loc
	c.mu.Unlock()
	return r.loc.Latitude, r.loc.Longitude, nil
}
