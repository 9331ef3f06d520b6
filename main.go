package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hiteshptrivedi/display-info/clock"
	"github.com/hiteshptrivedi/display-info/config"
	"github.com/hiteshptrivedi/display-info/display"
	"github.com/hiteshptrivedi/display-info/fetch"
	"github.com/hiteshptrivedi/display-info/geolocate"
	"github.com/hiteshptrivedi/display-info/timesync"
	"github.com/hiteshptrivedi/display-info/transit"
	"github.com/hiteshptrivedi/display-info/weather"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	settingsFile := flag.String("settings", "settings.toml", "Path to settings file")
	tick := flag.Duration("tick", 0, "Override the loop tick period")
	once := flag.Bool("once", false, "Run a single tick and exit")
	flag.Parse()

	cfg, err := config.Load(*settingsFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tickInterval := cfg.Tick()
	if *tick > 0 {
		tickInterval = *tick
	}

	clk := clock.NewAdjustable()

	// One fetch client per source so each provider's rate limit is
	// independent of the others.
	syncer := timesync.NewSynchronizer(fetch.NewClient(fetch.DefaultTimeout, 0.5, 2), clk)
	locator := geolocate.NewResolver(fetch.NewClient(fetch.DefaultTimeout, 0.5, 3))

	opts := display.Options{
		Clock:            clk,
		Sink:             display.NewTerminalSink(),
		Locator:          locator,
		Syncer:           syncer,
		WeatherInterval:  time.Duration(cfg.Intervals.TemperatureQuerySecs) * time.Second,
		TransitInterval:  time.Duration(cfg.Intervals.RedlineQuerySecs) * time.Second,
		TimeSyncInterval: time.Duration(cfg.Intervals.TimeSyncSecs) * time.Second,
		TickInterval:     tickInterval,
		CountdownLabel:   cfg.Countdown.Label,
	}
	if target, ok := cfg.CountdownTarget(); ok {
		opts.CountdownTarget = target
		opts.HasCountdown = true
	}

	if cfg.WeatherEnabled() {
		// OpenWeatherMap free tier allows 60 calls/minute; the scheduler
		// interval keeps us far below that, the limiter is a backstop.
		opts.Weather = weather.NewClient(fetch.NewClient(fetch.DefaultTimeout, 1.0, 5), clk, cfg.WeatherAPIKey)
	} else {
		log.Println("OPENWEATHER_API_KEY not set; weather display disabled")
	}

	if cfg.TransitEnabled() {
		tc := transit.NewClient(fetch.NewClient(fetch.DefaultTimeout, 1.0, 3), clk, cfg.TransitAPIKey, transit.Config{
			Route:          cfg.Transit.Route,
			Stop:           cfg.Transit.Stop,
			DirectionID:    cfg.Transit.DirectionID,
			MinLeadMinutes: cfg.Transit.MinLeadMinutes,
		})
		log.Printf("Tracking transit predictions for %s", tc.Describe())
		opts.Transit = tc
	} else {
		log.Println("MBTA_API_KEY not set; transit display disabled")
	}

	monitor := display.NewMonitor(opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sync the clock once before the loop starts; a failure here is not
	// fatal, the device clock is used as-is and the scheduler retries on its
	// own interval.
	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if syncer.Sync(bootCtx) {
		log.Println("System time synced from internet")
		monitor.MarkTimeSynced()
	} else {
		log.Println("Warning: could not sync system time, using device's current time")
	}
	cancel()

	if *once {
		monitor.Tick(ctx)
		return
	}

	log.Printf("Starting display monitor (tick %s)", tickInterval)
	monitor.Run(ctx)
	log.Println("Shutdown complete")
}
