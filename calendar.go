package accounting

import (
	"time"

	"github.com/etnz/accounting/date"
)

// MarketCalendar answers open/closed queries for a trading venue. Real venue
// calendars (holidays, half days) are external collaborators; this core only
// consumes the interface.
type MarketCalendar interface {
	// IsOpenOn reports whether the venue trades at all on the given
	// exchange-local date.
	IsOpenOn(d date.Date) bool
}

// WeekdayCalendar is the default simulation calendar: open Monday through
// Friday, no holidays.
type WeekdayCalendar struct{}

// IsOpenOn implements MarketCalendar.
func (WeekdayCalendar) IsOpenOn(d date.Date) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// HolidayCalendar is a weekday calendar with an explicit closed-day list, a
// cheap stand-in for a real venue calendar in backtests.
type HolidayCalendar struct {
	Holidays map[date.Date]bool
}

// IsOpenOn implements MarketCalendar.
func (c HolidayCalendar) IsOpenOn(d date.Date) bool {
	if c.Holidays[d] {
		return false
	}
	return WeekdayCalendar{}.IsOpenOn(d)
}
