// Package timesync corrects device clock drift from public time services.
package timesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hiteshptrivedi/display-info/clock"
	"github.com/hiteshptrivedi/display-info/fetch"
	"github.com/hiteshptrivedi/display-info/timestamp"
)

// candidateFields are the datetime key names tried, in order, against each
// service's response. Different services disagree on the spelling.
var candidateFields = []string{"datetime", "dateTime", "currentLocalTime", "currentDateTime"}

// Synchronizer fetches the current time from a fallback chain of services and
// sets the device clock.
type Synchronizer struct {
	client   *fetch.Client
	clk      clock.Clock
	services []fetch.Endpoint
}

func NewSynchronizer(client *fetch.Client, clk clock.Clock) *Synchronizer {
	return &Synchronizer{
		client: client,
		clk:    clk,
		services: []fetch.Endpoint{
			{Name: "worldtimeapi (ip)", URL: "http://worldtimeapi.org/api/ip"},
			{Name: "worldtimeapi (zone)", URL: "http://worldtimeapi.org/api/timezone/America/New_York"},
			{Name: "timeapi.io", URL: "http://timeapi.io/api/Time/current/zone?timeZone=America/New_York"},
		},
	}
}

// Sync tries each service once and sets the device clock from the first
// parseable answer. Reports false when every service failed or the device
// cannot set its clock; a failed sync is not retried until the scheduler's
// next resync interval. The fetched time is logged either way.
func (s *Synchronizer) Sync(ctx context.Context) bool {
	fields, err := fetch.Try(ctx, s.client, s.services, interpretTime)
	if err != nil {
		log.Println("[timesync] failed to sync time from any service")
		return false
	}

	t := time.Date(fields.Year, time.Month(fields.Month), fields.Day,
		fields.Hour, fields.Minute, fields.Second, 0, time.Local)
	log.Printf("[timesync] time from service: %s", t.Format("2006-01-02 15:04:05"))

	if !s.clk.Set(t) {
		log.Println("[timesync] device clock is not settable")
		return false
	}
	return true
}

// interpretTime pulls a datetime string out of a service response, trying the
// candidate field names in order, and parses it.
func interpretTime(payload []byte) (timestamp.Fields, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(payload, &body); err != nil {
		return timestamp.Fields{}, err
	}
	for _, key := range candidateFields {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		fields, ok2 := timestamp.Parse(s)
		if !ok2 {
			return timestamp.Fields{}, fmt.Errorf("unparseable datetime %q under %q", s, key)
		}
		return fields, nil
	}
	return timestamp.Fields{}, fmt.Errorf("no datetime field found (tried %v)", candidateFields)
}
