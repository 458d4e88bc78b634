package compliance

import (
	"time"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
)

// Session is the MOEX trading-session state
type Session string

const (
	SessionMain    Session = "MAIN"
	SessionEvening Session = "EVENING"
	SessionClosed  Session = "CLOSED"
)

// Calendar answers session and settlement questions in exchange local time.
// It is a pure function of the injected timestamp.
type Calendar struct {
	loc            *time.Location
	mainOpen       time.Duration
	mainClose      time.Duration
	eveningOpen    time.Duration
	eveningClose   time.Duration
	settlementDays int
}

// NewCalendar builds a calendar from compliance rules
func NewCalendar(rules config.ComplianceRules) *Calendar {
	return &Calendar{
		loc:            time.FixedZone("MSK", rules.UTCOffsetHours*60*60),
		mainOpen:       offset(rules.MainOpen),
		mainClose:      offset(rules.MainClose),
		eveningOpen:    offset(rules.EveningOpen),
		eveningClose:   offset(rules.EveningClose),
		settlementDays: rules.SettlementDays,
	}
}

func offset(t config.TimeOfDay) time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute
}

// Location returns the exchange time zone
func (c *Calendar) Location() *time.Location { return c.loc }

func (c *Calendar) local(t time.Time) (midnight time.Time, sinceMidnight time.Duration) {
	lt := t.In(c.loc)
	midnight = time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, c.loc)
	return midnight, lt.Sub(midnight)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Session returns the session in effect at t; bounds are inclusive
func (c *Calendar) Session(t time.Time) Session {
	midnight, since := c.local(t)
	if isWeekend(midnight) {
		return SessionClosed
	}
	switch {
	case since >= c.mainOpen && since <= c.mainClose:
		return SessionMain
	case since >= c.eveningOpen && since <= c.eveningClose:
		return SessionEvening
	default:
		return SessionClosed
	}
}

// IsTradingHours reports whether any session is open at t
func (c *Calendar) IsTradingHours(t time.Time) bool {
	return c.Session(t) != SessionClosed
}

// NextSessionStart returns the next session opening after t.
// Before the main session it is today's main open, between sessions today's evening open,
// otherwise the next weekday's main open.
func (c *Calendar) NextSessionStart(t time.Time) time.Time {
	midnight, since := c.local(t)
	if !isWeekend(midnight) {
		if since < c.mainOpen {
			return midnight.Add(c.mainOpen)
		}
		if since > c.mainClose && since < c.eveningOpen {
			return midnight.Add(c.eveningOpen)
		}
	}
	day := nextWeekday(midnight)
	return day.Add(c.mainOpen)
}

// SettlementDate returns the T+N business-day settlement, at main session open
func (c *Calendar) SettlementDate(trade time.Time) time.Time {
	day, _ := c.local(trade)
	for added := 0; added < c.settlementDays; {
		day = day.AddDate(0, 0, 1)
		if !isWeekend(day) {
			added++
		}
	}
	return day.Add(c.mainOpen)
}

func nextWeekday(midnight time.Time) time.Time {
	day := midnight.AddDate(0, 0, 1)
	for isWeekend(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}
