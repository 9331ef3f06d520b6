// Package display runs the cooperative fetch-and-rotate loop: it decides per
// tick which sources are due for a refresh, caches their rendered text, and
// rotates a fixed set of display states onto the sink.
package display

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hiteshptrivedi/display-info/clock"
	"github.com/hiteshptrivedi/display-info/models"
	"github.com/hiteshptrivedi/display-info/transit"
	"github.com/hiteshptrivedi/display-info/weather"
)

// State is one slot of the display rotation.
type State int

const (
	StateTemperature State = iota
	StateTransit
	StateCountdown

	stateCount
)

func (s State) String() string {
	switch s {
	case StateTemperature:
		return "temperature"
	case StateTransit:
		return "transit"
	case StateCountdown:
		return "countdown"
	}
	return "unknown"
}

// maxWeatherFailures is the run of consecutive current-conditions failures
// after which the weather slot degrades to the terminal failure message,
// signaling the device may need a hard reset.
const maxWeatherFailures = 10

// fetchBudget bounds all of one tick's network work, on top of the per-request
// timeout inside the fetch client.
const fetchBudget = 45 * time.Second

// WeatherSource rebuilds the weather sample for a location.
type WeatherSource interface {
	Refresh(ctx context.Context, loc models.GeoPoint) (models.WeatherSample, error)
}

// TransitSource returns minutes-until-arrival for the next qualifying trains.
type TransitSource interface {
	NextArrivals(ctx context.Context) ([]int, error)
}

// TimeSyncer corrects device clock drift.
type TimeSyncer interface {
	Sync(ctx context.Context) bool
}

// Locator resolves the device's approximate position.
type Locator interface {
	Resolve(ctx context.Context) (models.GeoPoint, bool)
}

// sourceState is the per-source cache: the last rendered text and color, when
// the source was last fetched, and how many fetches in a row have failed.
type sourceState struct {
	text      string
	color     models.Color
	lastFetch time.Time
	fetched   bool
	failures  int
}

// due reports whether the source has never fetched or its interval has lapsed.
func (s *sourceState) due(now time.Time, interval time.Duration) bool {
	return !s.fetched || now.Sub(s.lastFetch) > interval
}

// Options wires a Monitor. A nil Weather or Transit source means that source
// is disabled (its API key was missing at boot) and its slot renders a fixed
// alert instead.
type Options struct {
	Clock   clock.Clock
	Sink    Sink
	Locator Locator
	Weather WeatherSource
	Transit TransitSource
	Syncer  TimeSyncer

	WeatherInterval  time.Duration
	TransitInterval  time.Duration
	TimeSyncInterval time.Duration
	TickInterval     time.Duration

	CountdownLabel  string
	CountdownTarget time.Time
	HasCountdown    bool
}

// Monitor owns all mutable scheduling state. It is used from exactly one
// goroutine; nothing here is shared.
type Monitor struct {
	opts Options

	locationFound bool
	location      models.GeoPoint

	weatherState sourceState
	transitState sourceState

	lastTimeSync time.Time
	timeSynced   bool

	state State
}

func NewMonitor(opts Options) *Monitor {
	return &Monitor{opts: opts}
}

// MarkTimeSynced records a boot-time sync so the scheduler does not redo it
// on the first tick.
func (m *Monitor) MarkTimeSynced() {
	m.timeSynced = true
	m.lastTimeSync = m.opts.Clock.Now()
}

// Run ticks until the context is canceled. The loop is strictly sequential:
// at most one fetch per source per tick, then one render, then the sleep.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	m.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick executes one scheduler pass: refresh due sources in priority order
// (weather, transit, time resync), render the current rotation state, advance
// the rotation. No failure in any source may escape the tick.
func (m *Monitor) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[display] tick recovered: %v", r)
		}
	}()

	tickCtx, cancel := context.WithTimeout(ctx, fetchBudget)
	defer cancel()

	now := m.opts.Clock.Now()

	if !m.locationFound && m.opts.Locator != nil {
		if pt, ok := m.opts.Locator.Resolve(tickCtx); ok {
			m.locationFound = true
			m.location = pt
			log.Printf("[display] location resolved: %.4f, %.4f", pt.Latitude, pt.Longitude)
		}
	}

	if m.weatherState.due(now, m.opts.WeatherInterval) {
		m.guard("weather", func() { m.refreshWeather(tickCtx, now) })
	}
	if m.transitState.due(now, m.opts.TransitInterval) {
		m.guard("transit", func() { m.refreshTransit(tickCtx, now) })
	}
	if m.timeSyncDue(now) {
		m.lastTimeSync = now
		m.timeSynced = true
		m.guard("timesync", func() {
			if m.opts.Syncer != nil && !m.opts.Syncer.Sync(tickCtx) {
				log.Println("[display] time resync failed; keeping device clock")
			}
		})
	}

	text, color := m.render()
	text += "\n" + prettyClock(now)
	m.opts.Sink.Show(text, color)

	m.state = (m.state + 1) % stateCount
}

// guard keeps a misbehaving source from taking the render step down with it.
func (m *Monitor) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[display] %s refresh recovered: %v", name, r)
		}
	}()
	fn()
}

// refreshWeather invokes the weather client and updates the cached slot. When
// the location is still unresolved the client is not invoked at all and the
// slot is retried next tick.
func (m *Monitor) refreshWeather(ctx context.Context, now time.Time) {
	if m.opts.Weather == nil {
		m.weatherState = sourceState{
			text:      "no weather API key",
			color:     models.ColorAlert,
			lastFetch: now,
			fetched:   true,
		}
		return
	}
	if !m.locationFound {
		m.weatherState.text = "Location not available"
		m.weatherState.color = models.ColorAlert
		return
	}

	sample, err := m.opts.Weather.Refresh(ctx, m.location)
	m.weatherState.lastFetch = now
	m.weatherState.fetched = true

	if err != nil {
		m.weatherState.failures++
		log.Printf("[display] weather refresh failed (%d in a row): %v", m.weatherState.failures, err)
		if m.weatherState.failures > maxWeatherFailures {
			m.weatherState.text = "weather down - reset me"
		} else {
			m.weatherState.text = weather.RenderText(sample)
		}
		m.weatherState.color = models.ColorAlert
		return
	}

	m.weatherState.failures = 0
	m.weatherState.text = weather.RenderText(sample)
	m.weatherState.color = models.ColorDescription
	log.Printf("[display] updated weather: %q", m.weatherState.text)
}

func (m *Monitor) refreshTransit(ctx context.Context, now time.Time) {
	if m.opts.Transit == nil {
		m.transitState = sourceState{
			text:      "no transit API key",
			color:     models.ColorAlert,
			lastFetch: now,
			fetched:   true,
		}
		return
	}

	minutes, err := m.opts.Transit.NextArrivals(ctx)
	m.transitState.lastFetch = now
	m.transitState.fetched = true

	if err != nil {
		m.transitState.failures++
		log.Printf("[display] transit refresh failed (%d in a row): %v", m.transitState.failures, err)
		m.transitState.text = "No MBTA data"
		m.transitState.color = models.ColorAlert
		return
	}

	m.transitState.failures = 0
	m.transitState.text = transit.RenderText(minutes)
	m.transitState.color = models.ColorAmber
	log.Printf("[display] updated transit: %q", m.transitState.text)
}

func (m *Monitor) timeSyncDue(now time.Time) bool {
	return !m.timeSynced || now.Sub(m.lastTimeSync) > m.opts.TimeSyncInterval
}

// render returns the text and color for the current rotation state. The
// rotation advances every tick no matter what any fetch did.
func (m *Monitor) render() (string, models.Color) {
	switch m.state {
	case StateTemperature:
		if !m.locationFound {
			return "no Temp avail", models.ColorAlert
		}
		if !m.weatherState.fetched && m.weatherState.text == "" {
			return "no Temp avail", models.ColorAlert
		}
		return m.weatherState.text, m.weatherState.color
	case StateTransit:
		if !m.transitState.fetched {
			return "No MBTA data", models.ColorAlert
		}
		return m.transitState.text, m.transitState.color
	case StateCountdown:
		return m.renderCountdown()
	}
	return "Unknown state", models.ColorAlert
}

func (m *Monitor) renderCountdown() (string, models.Color) {
	if !m.opts.HasCountdown {
		return "No countdown set", models.ColorDescription
	}
	days := daysUntil(m.opts.CountdownTarget, m.opts.Clock.Now())
	label := m.opts.CountdownLabel
	switch {
	case days > 1:
		return fmt.Sprintf("%d days to %s", days, label), models.ColorTemperature
	case days == 1:
		return "1 day to " + label, models.ColorTemperature
	case days == 0:
		return label + " today", models.ColorTemperature
	default:
		return label + " passed", models.ColorAmber
	}
}

// daysUntil counts whole local calendar days from now's date to the target's
// date.
func daysUntil(target, now time.Time) int {
	ty, tm, td := target.Date()
	ny, nm, nd := now.Date()
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(n) / (24 * time.Hour))
}

// prettyClock formats the folded clock line shown beneath every state.
func prettyClock(now time.Time) string {
	hour := now.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	ampm := "AM"
	if now.Hour() >= 12 {
		ampm = "PM"
	}
	return fmt.Sprintf("%2d:%02d%s %s", hour, now.Minute(), ampm, now.Format("Mon"))
}
