// Package geolocate resolves the device's approximate position from IP
// geolocation services. Several providers are queried and their answers
// averaged; each provider names its coordinate fields differently, so
// extraction is table-driven per provider.
package geolocate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/hiteshptrivedi/display-info/fetch"
	"github.com/hiteshptrivedi/display-info/models"
)

// extractor pulls coordinates out of one provider's response shape.
type extractor func(payload []byte) (models.GeoPoint, error)

// provider pairs an endpoint with its response shape.
type provider struct {
	endpoint fetch.Endpoint
	extract  extractor
}

// Resolver queries the provider table and averages the answers.
type Resolver struct {
	client     *fetch.Client
	providers  []provider
	lastResort provider
}

func NewResolver(client *fetch.Client) *Resolver {
	return &Resolver{
		client: client,
		providers: []provider{
			{
				endpoint: fetch.Endpoint{Name: "ipapi.co", URL: "https://ipapi.co/json/"},
				extract:  extractNamedFields("latitude", "longitude"),
			},
			{
				endpoint: fetch.Endpoint{Name: "ipinfo.io", URL: "https://ipinfo.io/json"},
				extract:  extractCombinedLoc("loc"),
			},
			{
				endpoint: fetch.Endpoint{Name: "ip-api.com", URL: "http://ip-api.com/json/"},
				extract:  extractNamedFields("lat", "lon"),
			},
		},
		lastResort: provider{
			endpoint: fetch.Endpoint{Name: "ip-api.com (last resort)", URL: "http://ip-api.com/json/"},
			extract:  extractWithStatus,
		},
	}
}

// Resolve queries every provider, averages all successful extractions and
// returns the mean point. With zero successes the last-resort provider is
// tried once. Returns false when no provider at all could answer; the caller
// must then skip location-dependent fetches rather than reuse stale
// coordinates.
func (r *Resolver) Resolve(ctx context.Context) (models.GeoPoint, bool) {
	var points []models.GeoPoint
	for _, p := range r.providers {
		pt, err := fetch.Try(ctx, r.client, []fetch.Endpoint{p.endpoint}, p.extract)
		if err != nil {
			continue
		}
		log.Printf("[geolocate] %s: %.4f, %.4f", p.endpoint.Name, pt.Latitude, pt.Longitude)
		points = append(points, pt)
	}

	if len(points) > 0 {
		var sumLat, sumLon float64
		for _, pt := range points {
			sumLat += pt.Latitude
			sumLon += pt.Longitude
		}
		n := float64(len(points))
		return models.GeoPoint{Latitude: sumLat / n, Longitude: sumLon / n}, true
	}

	pt, err := fetch.Try(ctx, r.client, []fetch.Endpoint{r.lastResort.endpoint}, r.lastResort.extract)
	if err != nil {
		log.Println("[geolocate] could not determine location from any service")
		return models.GeoPoint{}, false
	}
	return pt, true
}

// extractNamedFields handles providers that return latitude and longitude as
// two separate numeric fields.
func extractNamedFields(latKey, lonKey string) extractor {
	return func(payload []byte) (models.GeoPoint, error) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(payload, &fields); err != nil {
			return models.GeoPoint{}, err
		}
		lat, err := numericField(fields, latKey)
		if err != nil {
			return models.GeoPoint{}, err
		}
		lon, err := numericField(fields, lonKey)
		if err != nil {
			return models.GeoPoint{}, err
		}
		return models.GeoPoint{Latitude: lat, Longitude: lon}, nil
	}
}

// extractCombinedLoc handles providers that return a single "lat,lon" string.
func extractCombinedLoc(key string) extractor {
	return func(payload []byte) (models.GeoPoint, error) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(payload, &fields); err != nil {
			return models.GeoPoint{}, err
		}
		raw, ok := fields[key]
		if !ok {
			return models.GeoPoint{}, fmt.Errorf("missing %q field", key)
		}
		var loc string
		if err := json.Unmarshal(raw, &loc); err != nil {
			return models.GeoPoint{}, err
		}
		parts := strings.Split(loc, ",")
		if len(parts) != 2 {
			return models.GeoPoint{}, fmt.Errorf("malformed %q value %q", key, loc)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return models.GeoPoint{}, err
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return models.GeoPoint{}, err
		}
		return models.GeoPoint{Latitude: lat, Longitude: lon}, nil
	}
}

// extractWithStatus is the last-resort shape: coordinates are only valid when
// the provider reports status "success".
func extractWithStatus(payload []byte) (models.GeoPoint, error) {
	var resp struct {
		Status string   `json:"status"`
		Lat    *float64 `json:"lat"`
		Lon    *float64 `json:"lon"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return models.GeoPoint{}, err
	}
	if resp.Status != "success" {
		return models.GeoPoint{}, fmt.Errorf("provider status %q", resp.Status)
	}
	if resp.Lat == nil || resp.Lon == nil {
		return models.GeoPoint{}, errors.New("missing lat/lon fields")
	}
	return models.GeoPoint{Latitude: *resp.Lat, Longitude: *resp.Lon}, nil
}

func numericField(fields map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("missing %q field", key)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		// Some providers quote their numbers.
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return 0, err
		}
		return strconv.ParseFloat(s, 64)
	}
	return v, nil
}
