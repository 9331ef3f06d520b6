// Package transit fetches upcoming arrival predictions from the MBTA v3 API
// and filters them into the short minutes-until list the display shows.
package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hiteshptrivedi/display-info/clock"
	"github.com/hiteshptrivedi/display-info/fetch"
	"github.com/hiteshptrivedi/display-info/timestamp"
)

const (
	// rawLimit requests more predictions than shown so client-side lead-time
	// filtering has enough to work with.
	rawLimit = 10

	// maxShown caps the rendered arrival list.
	maxShown = 2

	// DefaultMinLeadMinutes is the minimum minutes-until-arrival for a
	// prediction to be worth showing; anything closer is effectively boarding.
	DefaultMinLeadMinutes = 12
)

// Config selects which predictions to request.
type Config struct {
	Route       string
	Stop        string
	DirectionID int

	// MinLeadMinutes overrides DefaultMinLeadMinutes when positive.
	MinLeadMinutes int
}

// Client queries one route/stop/direction for arrival predictions.
type Client struct {
	apiKey      string
	baseURL     string
	fetchClient *fetch.Client
	clk         clock.Clock
	cfg         Config
}

func NewClient(fetchClient *fetch.Client, clk clock.Clock, apiKey string, cfg Config) *Client {
	if cfg.MinLeadMinutes <= 0 {
		cfg.MinLeadMinutes = DefaultMinLeadMinutes
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     "https://api-v3.mbta.com",
		fetchClient: fetchClient,
		clk:         clk,
		cfg:         cfg,
	}
}

// prediction mirrors the slice of the MBTA payload the display needs.
type prediction struct {
	Attributes struct {
		ArrivalTime   string `json:"arrival_time"`
		DepartureTime string `json:"departure_time"`
	} `json:"attributes"`
}

// NextArrivals returns minutes-until-arrival for the next qualifying trains,
// in the API's arrival-time order, at most maxShown entries. Predictions with
// neither an arrival nor a departure time are skipped; those closer than the
// minimum lead time are dropped.
func (c *Client) NextArrivals(ctx context.Context) ([]int, error) {
	params := url.Values{}
	params.Add("filter[route]", c.cfg.Route)
	params.Add("filter[stop]", c.cfg.Stop)
	params.Add("filter[direction_id]", strconv.Itoa(c.cfg.DirectionID))
	params.Add("sort", "arrival_time")
	params.Add("page[limit]", strconv.Itoa(rawLimit))

	endpoints := []fetch.Endpoint{{
		Name: "mbta predictions",
		URL:  c.baseURL + "/predictions?" + params.Encode(),
		Header: map[string]string{
			"x-api-key":    c.apiKey,
			"Content-Type": "application/json",
		},
	}}

	now := timestamp.FromTime(c.clk.Now())

	return fetch.Try(ctx, c.fetchClient, endpoints, func(payload []byte) ([]int, error) {
		var resp struct {
			Data []prediction `json:"data"`
		}
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, err
		}
		return filterArrivals(resp.Data, now, c.cfg.MinLeadMinutes), nil
	})
}

// filterArrivals walks predictions in API order, keeping those at least
// minLead minutes out, and stops once maxShown qualify.
func filterArrivals(preds []prediction, now timestamp.Fields, minLead int) []int {
	var minutes []int
	for _, p := range preds {
		ts := p.Attributes.ArrivalTime
		if ts == "" {
			ts = p.Attributes.DepartureTime
		}
		if ts == "" {
			continue
		}
		arrival, ok := timestamp.Parse(ts)
		if !ok {
			continue
		}
		until := timestamp.MinutesUntil(arrival, now)
		if until < minLead {
			continue
		}
		minutes = append(minutes, until)
		if len(minutes) >= maxShown {
			break
		}
	}
	return minutes
}

// RenderText formats a minutes list for the display: "15,27 mins", or a
// distinct message when nothing qualifies.
func RenderText(minutes []int) string {
	if len(minutes) == 0 {
		return "No trains"
	}
	parts := make([]string, len(minutes))
	for i, m := range minutes {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",") + " mins"
}

// Describe names the tracked stop for logs.
func (c *Client) Describe() string {
	return fmt.Sprintf("%s @ %s dir %d", c.cfg.Route, c.cfg.Stop, c.cfg.DirectionID)
}
