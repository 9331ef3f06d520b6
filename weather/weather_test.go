package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hiteshptrivedi/display-info/clock"
	"github.com/hiteshptrivedi/display-info/fetch"
	"github.com/hiteshptrivedi/display-info/models"
)

func testClient() *fetch.Client {
	return fetch.NewClient(2*time.Second, 100, 100)
}

func intPtr(v int) *int { return &v }

func TestSixHourTemp(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	points := []forecastPoint{
		{At: now.Add(-1 * time.Hour), TempF: 10}, // before now, ignored
		{At: now.Add(3 * time.Hour), TempF: 60},
		{At: now.Add(6 * time.Hour), TempF: 65},
		{At: now.Add(9 * time.Hour), TempF: 70},
	}
	got := sixHourTemp(points, now)
	if got == nil || *got != 65 {
		t.Errorf("sixHourTemp = %v, want 65", got)
	}
}

func TestSixHourTemp_NoFutureSamples(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	points := []forecastPoint{
		{At: now.Add(-3 * time.Hour), TempF: 50},
	}
	if got := sixHourTemp(points, now); got != nil {
		t.Errorf("sixHourTemp = %v, want nil", got)
	}
}

func TestDayHighs(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	day1 := now.AddDate(0, 0, 1)
	day2 := now.AddDate(0, 0, 2)

	points := []forecastPoint{
		{At: now.Add(2 * time.Hour), TempF: 99}, // today, not day 1
		{At: day1, TempF: 70},
		{At: day1.Add(3 * time.Hour), TempF: 75},
		{At: day2, TempF: 60},
	}

	label1, high1, label2, high2 := dayHighs(points, now)
	if label1 != day1.Format("Mon") || label2 != day2.Format("Mon") {
		t.Errorf("labels = %q, %q", label1, label2)
	}
	if high1 == nil || *high1 != 75 {
		t.Errorf("day1 high = %v, want 75", high1)
	}
	if high2 == nil || *high2 != 60 {
		t.Errorf("day2 high = %v, want 60", high2)
	}
}

func TestDayHighs_EmptyDay(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	points := []forecastPoint{
		{At: now.AddDate(0, 0, 1), TempF: 70},
	}
	_, high1, _, high2 := dayHighs(points, now)
	if high1 == nil || *high1 != 70 {
		t.Errorf("day1 high = %v, want 70", high1)
	}
	if high2 != nil {
		t.Errorf("day2 high = %v, want nil for a day with zero samples", high2)
	}
}

func TestRenderText_FullSample(t *testing.T) {
	s := models.WeatherSample{
		CurrentTempF:  intPtr(72),
		ConditionText: "overcast clouds",
		ForecastTempF: intPtr(68),
		Day1Label:     "Tue",
		Day1HighF:     intPtr(75),
		Day2Label:     "Wed",
		Day2HighF:     intPtr(60),
	}
	got := RenderText(s)
	want := "72F overcast clouds\n+6h 68F\nTue 75 Wed 60"
	if got != want {
		t.Errorf("RenderText = %q, want %q", got, want)
	}
}

func TestRenderText_MissingForecastHalf(t *testing.T) {
	s := models.WeatherSample{
		CurrentTempF:  intPtr(40),
		ConditionText: "light snow",
	}
	got := RenderText(s)
	if !strings.Contains(got, "40F light snow") {
		t.Errorf("current half missing from %q", got)
	}
	if !strings.Contains(got, "No Forecast") {
		t.Errorf("missing forecast not signaled in %q", got)
	}
}

func TestRenderText_MissingCurrentHalf(t *testing.T) {
	s := models.WeatherSample{
		ForecastTempF: intPtr(55),
		Day1Label:     "Tue",
		Day1HighF:     intPtr(58),
		Day2Label:     "Wed",
	}
	got := RenderText(s)
	if !strings.Contains(got, "Failed to fetch temperature data.") {
		t.Errorf("missing current not signaled in %q", got)
	}
	if !strings.Contains(got, "Tue 58") {
		t.Errorf("surviving forecast half missing from %q", got)
	}
}

func TestRenderText_OneDayMissing(t *testing.T) {
	s := models.WeatherSample{
		CurrentTempF: intPtr(50),
		Day1Label:    "Tue",
		Day1HighF:    intPtr(52),
		Day2Label:    "Wed",
	}
	got := RenderText(s)
	if strings.Contains(got, "No Forecast") {
		t.Errorf("No Forecast rendered although day1 has a high: %q", got)
	}
}

func TestRefresh_PartialSuccess(t *testing.T) {
	// Current conditions succeed, forecast fails.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/weather":
			if r.URL.Query().Get("units") != "imperial" {
				t.Errorf("units = %q, want imperial", r.URL.Query().Get("units"))
			}
			fmt.Fprint(w, `{"main":{"temp":71.6},"weather":[{"description":"clear sky"}]}`)
		case "/forecast":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(testClient(), clock.Fixed{T: time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)}, "test-key")
	c.baseURL = server.URL

	sample, err := c.Refresh(context.Background(), models.GeoPoint{Latitude: 42.4, Longitude: -71.1})
	if err != nil {
		t.Fatalf("current-conditions error: %v", err)
	}
	if sample.CurrentTempF == nil || *sample.CurrentTempF != 72 {
		t.Errorf("CurrentTempF = %v, want 72 (rounded)", sample.CurrentTempF)
	}
	if sample.ConditionText != "clear sky" {
		t.Errorf("ConditionText = %q", sample.ConditionText)
	}
	if sample.ForecastTempF != nil || sample.Day1HighF != nil || sample.Day2HighF != nil {
		t.Errorf("forecast half should be empty after forecast failure: %+v", sample)
	}
}

func TestRefresh_CurrentFailsForecastSurvives(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	day1Noon := time.Date(2024, 1, 16, 12, 0, 0, 0, time.Local)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/weather":
			w.WriteHeader(http.StatusBadGateway)
		case "/forecast":
			if r.URL.Query().Get("cnt") != "12" {
				t.Errorf("cnt = %q, want 12", r.URL.Query().Get("cnt"))
			}
			fmt.Fprintf(w, `{"list":[{"dt":%d,"main":{"temp":41.0}}]}`, day1Noon.Unix())
		}
	}))
	defer server.Close()

	c := NewClient(testClient(), clock.Fixed{T: now}, "test-key")
	c.baseURL = server.URL

	sample, err := c.Refresh(context.Background(), models.GeoPoint{Latitude: 42.4, Longitude: -71.1})
	if err == nil {
		t.Fatal("expected current-conditions error")
	}
	if sample.CurrentTempF != nil {
		t.Errorf("CurrentTempF = %v, want nil", sample.CurrentTempF)
	}
	if sample.Day1HighF == nil || *sample.Day1HighF != 41 {
		t.Errorf("Day1HighF = %v, want 41", sample.Day1HighF)
	}
}
