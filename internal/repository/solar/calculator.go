package solar

import (
	"context"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
)

// Sun elevations, in degrees, that define the twilight events.
const (
	civilElevation        = -6
	nauticalElevation     = -12
	astronomicalElevation = -18
)

// Calculator computes solar events for a fixed position.
type Calculator struct {
	latitude  float64
	longitude float64
	location  *time.Location
}

// NewCalculator creates a calculator for the given coordinates. Event
// instants are reported in loc.
func NewCalculator(latitude, longitude float64, loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.Local
	}

	return &Calculator{
		latitude:  latitude,
		longitude: longitude,
		location:  loc,
	}
}

// EventsOn returns the solar events of the calendar day containing day, as
// seen in the calculator's location. Events that do not occur on that day
// (polar day or night) are left unset.
func (c *Calculator) EventsOn(_ context.Context, day time.Time) (*alarm.SolarTable, error) {
	var (
		local            = day.In(c.location)
		year, month, dom = local.Date()
		table            = alarm.NewSolarTable(day)
	)

	rise, set := sunrise.SunriseSunset(c.latitude, c.longitude, year, month, dom)
	c.set(table, alarm.Sunrise, rise)
	c.set(table, alarm.Sunset, set)

	if !rise.IsZero() && !set.IsZero() {
		c.set(table, alarm.SolarNoon, rise.Add(set.Sub(rise)/2))
	}

	twilights := []struct {
		elevation float64
		dawn      alarm.SolarEvent
		dusk      alarm.SolarEvent
	}{
		{civilElevation, alarm.CivilDawn, alarm.CivilDusk},
		{nauticalElevation, alarm.NauticalDawn, alarm.NauticalDusk},
		{astronomicalElevation, alarm.AstronomicalDawn, alarm.AstronomicalDusk},
	}

	for _, twilight := range twilights {
		dawn, dusk := sunrise.TimeOfElevation(c.latitude, c.longitude, twilight.elevation, year, month, dom)
		c.set(table, twilight.dawn, dawn)
		c.set(table, twilight.dusk, dusk)
	}

	return table, nil
}

func (c *Calculator) set(table *alarm.SolarTable, ev alarm.SolarEvent, at time.Time) {
	if at.IsZero() {
		return
	}

	table.Set(ev, at.In(c.location))
}
