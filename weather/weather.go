// Package weather fetches current conditions and a short-range forecast from
// OpenWeatherMap and derives the fields the display shows: current
// temperature, the temperature about six hours out, and the next two days'
// highs.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/hiteshptrivedi/display-info/clock"
	"github.com/hiteshptrivedi/display-info/fetch"
	"github.com/hiteshptrivedi/display-info/models"
)

// forecastCount caps the forecast request to bound response size; twelve
// 3-hour samples cover the two days the display renders.
const forecastCount = 12

// Client talks to OpenWeatherMap for one resolved location.
type Client struct {
	apiKey      string
	baseURL     string
	fetchClient *fetch.Client
	clk         clock.Clock
}

func NewClient(fetchClient *fetch.Client, clk clock.Clock, apiKey string) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     "https://api.openweathermap.org/data/2.5",
		fetchClient: fetchClient,
		clk:         clk,
	}
}

// forecastPoint is one 3-hour forecast sample.
type forecastPoint struct {
	At    time.Time
	TempF float64
}

// Refresh rebuilds the weather sample wholesale. The current-conditions half
// and the forecast half fail independently; whichever half succeeded is
// filled in and the other is left nil. The returned error reports failure of
// the current-conditions fetch only, which is what the persistent-failure
// counter tracks.
func (c *Client) Refresh(ctx context.Context, loc models.GeoPoint) (models.WeatherSample, error) {
	var sample models.WeatherSample

	tempF, desc, curErr := c.current(ctx, loc)
	if curErr == nil {
		sample.CurrentTempF = &tempF
		sample.ConditionText = desc
	}

	points, err := c.forecast(ctx, loc)
	if err == nil {
		now := c.clk.Now()
		sample.ForecastTempF = sixHourTemp(points, now)
		sample.Day1Label, sample.Day1HighF, sample.Day2Label, sample.Day2HighF = dayHighs(points, now)
	}

	return sample, curErr
}

// current fetches present conditions and returns a rounded Fahrenheit
// temperature with the condition description.
func (c *Client) current(ctx context.Context, loc models.GeoPoint) (int, string, error) {
	params := url.Values{}
	params.Add("lat", fmt.Sprintf("%f", loc.Latitude))
	params.Add("lon", fmt.Sprintf("%f", loc.Longitude))
	params.Add("appid", c.apiKey)
	params.Add("units", "imperial")

	endpoints := []fetch.Endpoint{{
		Name: "openweathermap current",
		URL:  c.baseURL + "/weather?" + params.Encode(),
	}}

	type currentResult struct {
		tempF int
		desc  string
	}
	result, err := fetch.Try(ctx, c.fetchClient, endpoints, func(payload []byte) (currentResult, error) {
		var resp struct {
			Main *struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []struct {
				Description string `json:"description"`
			} `json:"weather"`
		}
		if err := json.Unmarshal(payload, &resp); err != nil {
			return currentResult{}, err
		}
		if resp.Main == nil {
			return currentResult{}, fmt.Errorf("missing main field")
		}
		r := currentResult{tempF: int(math.Round(resp.Main.Temp))}
		if len(resp.Weather) > 0 {
			r.desc = resp.Weather[0].Description
		}
		return r, nil
	})
	if err != nil {
		return 0, "", err
	}
	return result.tempF, result.desc, nil
}

// forecast fetches the capped 3-hour forecast list.
func (c *Client) forecast(ctx context.Context, loc models.GeoPoint) ([]forecastPoint, error) {
	params := url.Values{}
	params.Add("lat", fmt.Sprintf("%f", loc.Latitude))
	params.Add("lon", fmt.Sprintf("%f", loc.Longitude))
	params.Add("appid", c.apiKey)
	params.Add("units", "imperial")
	params.Add("cnt", fmt.Sprintf("%d", forecastCount))

	endpoints := []fetch.Endpoint{{
		Name: "openweathermap forecast",
		URL:  c.baseURL + "/forecast?" + params.Encode(),
	}}

	return fetch.Try(ctx, c.fetchClient, endpoints, func(payload []byte) ([]forecastPoint, error) {
		var resp struct {
			List []struct {
				Dt   int64 `json:"dt"`
				Main struct {
					Temp float64 `json:"temp"`
				} `json:"main"`
			} `json:"list"`
		}
		if err := json.Unmarshal(payload, &resp); err != nil {
			return nil, err
		}
		if len(resp.List) == 0 {
			return nil, fmt.Errorf("empty forecast list")
		}
		points := make([]forecastPoint, 0, len(resp.List))
		for _, item := range resp.List {
			points = append(points, forecastPoint{
				At:    time.Unix(item.Dt, 0),
				TempF: item.Main.Temp,
			})
		}
		return points, nil
	})
}

// sixHourTemp returns the temperature of the sample at or after now whose
// timestamp is closest to now+6h, or nil when no sample qualifies.
func sixHourTemp(points []forecastPoint, now time.Time) *int {
	target := now.Add(6 * time.Hour)
	var best *forecastPoint
	var bestDist time.Duration
	for i := range points {
		p := points[i]
		if p.At.Before(now) {
			continue
		}
		dist := p.At.Sub(target)
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			best = &points[i]
			bestDist = dist
		}
	}
	if best == nil {
		return nil
	}
	v := int(math.Round(best.TempF))
	return &v
}

// dayHighs returns weekday labels and maximum temperatures for the next two
// calendar days by the device's local date. A day with no samples yields a
// nil high.
func dayHighs(points []forecastPoint, now time.Time) (string, *int, string, *int) {
	day1 := now.AddDate(0, 0, 1)
	day2 := now.AddDate(0, 0, 2)

	label1 := day1.Format("Mon")
	label2 := day2.Format("Mon")
	high1 := dayMax(points, day1)
	high2 := dayMax(points, day2)
	return label1, high1, label2, high2
}

func dayMax(points []forecastPoint, day time.Time) *int {
	y, m, d := day.Date()
	var max *float64
	for _, p := range points {
		py, pm, pd := p.At.Date()
		if py != y || pm != m || pd != d {
			continue
		}
		if max == nil || p.TempF > *max {
			t := p.TempF
			max = &t
		}
	}
	if max == nil {
		return nil
	}
	v := int(math.Round(*max))
	return &v
}

// RenderText formats a sample for the display. Whichever half of the sample
// is missing is signaled explicitly rather than left blank.
func RenderText(s models.WeatherSample) string {
	var lines []string

	if s.CurrentTempF != nil {
		line := fmt.Sprintf("%dF", *s.CurrentTempF)
		if s.ConditionText != "" {
			line += " " + s.ConditionText
		}
		lines = append(lines, line)
	} else {
		lines = append(lines, "Failed to fetch temperature data.")
	}

	if s.ForecastTempF != nil {
		lines = append(lines, fmt.Sprintf("+6h %dF", *s.ForecastTempF))
	}

	if s.Day1HighF == nil && s.Day2HighF == nil {
		lines = append(lines, "No Forecast")
	} else {
		var parts []string
		if s.Day1HighF != nil {
			parts = append(parts, fmt.Sprintf("%s %d", s.Day1Label, *s.Day1HighF))
		}
		if s.Day2HighF != nil {
			parts = append(parts, fmt.Sprintf("%s %d", s.Day2Label, *s.Day2HighF))
		}
		lines = append(lines, strings.Join(parts, " "))
	}

	return strings.Join(lines, "\n")
}
