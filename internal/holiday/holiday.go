// Package holiday computes the legal public holidays (Feiertage) of the
// 16 German Bundesländer for arbitrary years.
//
// All dates are date-only values represented as midnight UTC; callers
// must not rely on the time-of-day component.
package holiday

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Entry is a single public holiday: a calendar day plus its German name.
type Entry struct {
	Date time.Time
	Name string
}

// ErrUnknownState is returned by Holidays and SubdivisionCode for a
// state name outside the canonical 16-entry list.
var ErrUnknownState = errors.New("unknown state")

// States lists the 16 Bundesländer in canonical lowercase form.
var States = []string{
	"baden-württemberg",
	"bayern",
	"berlin",
	"brandenburg",
	"bremen",
	"hamburg",
	"hessen",
	"mecklenburg-vorpommern",
	"niedersachsen",
	"nordrhein-westfalen",
	"rheinland-pfalz",
	"saarland",
	"sachsen-anhalt",
	"sachsen",
	"schleswig-holstein",
	"thüringen",
}

// subdivisionCodes maps state names to their ISO 3166-2 codes, used
// when querying external holiday/vacation services.
var subdivisionCodes = map[string]string{
	"baden-württemberg":      "DE-BW",
	"bayern":                 "DE-BY",
	"berlin":                 "DE-BE",
	"brandenburg":            "DE-BB",
	"bremen":                 "DE-HB",
	"hamburg":                "DE-HH",
	"hessen":                 "DE-HE",
	"mecklenburg-vorpommern": "DE-MV",
	"niedersachsen":          "DE-NI",
	"nordrhein-westfalen":    "DE-NW",
	"rheinland-pfalz":        "DE-RP",
	"saarland":               "DE-SL",
	"sachsen-anhalt":         "DE-ST",
	"sachsen":                "DE-SN",
	"schleswig-holstein":     "DE-SH",
	"thüringen":              "DE-TH",
}

// SubdivisionCode returns the ISO 3166-2 code for a state name.
func SubdivisionCode(state string) (string, error) {
	code, ok := subdivisionCodes[state]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
	return code, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// EasterSunday computes the Gregorian date of Easter Sunday using the
// anonymous Gregorian algorithm (computus). The order of the integer
// divisions is significant; do not "simplify" the arithmetic.
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}

// RepentanceDay (Buß- und Bettag) is the unique Wednesday in the window
// [Nov 16, Nov 22]: November 22 minus (weekday(Nov 22) - Wednesday) mod 7,
// with a Monday=0 weekday convention.
func RepentanceDay(year int) time.Time {
	nov22 := date(year, time.November, 22)
	weekday := (int(nov22.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	back := (weekday - 2 + 7) % 7
	return nov22.AddDate(0, 0, -back)
}

// rule describes one holiday as data: a name, a date derivation (fixed
// month/day, offset from Easter Sunday, or a compute function) and an
// applicability predicate over (state, year). A nil predicate means the
// rule holds in every state in every year.
type rule struct {
	name string

	month time.Month
	day   int

	movable bool // date is Easter Sunday + offset
	offset  int

	compute func(year int) time.Time

	applies func(state string, year int) bool
}

// only builds a predicate matching a fixed set of states in all years.
func only(states ...string) func(string, int) bool {
	set := make(map[string]bool, len(states))
	for _, s := range states {
		set[s] = true
	}
	return func(state string, _ int) bool { return set[state] }
}

var reformationAlways = map[string]bool{
	"brandenburg":            true,
	"mecklenburg-vorpommern": true,
	"sachsen":                true,
	"sachsen-anhalt":         true,
	"thüringen":              true,
}

var reformationFrom2018 = map[string]bool{
	"bremen":             true,
	"hamburg":            true,
	"niedersachsen":      true,
	"schleswig-holstein": true,
}

var rules = []rule{
	{name: "Neujahr", month: time.January, day: 1},
	{name: "Karfreitag", movable: true, offset: -2},
	{name: "Ostermontag", movable: true, offset: 1},
	{name: "Tag der Arbeit", month: time.May, day: 1},
	{name: "Christi Himmelfahrt", movable: true, offset: 39},
	{name: "Pfingstmontag", movable: true, offset: 50},
	{name: "Tag der Deutschen Einheit", month: time.October, day: 3},
	{name: "1. Weihnachtsfeiertag", month: time.December, day: 25},
	{name: "2. Weihnachtsfeiertag", month: time.December, day: 26},

	{
		name: "Heilige Drei Könige", month: time.January, day: 6,
		applies: only("baden-württemberg", "bayern", "sachsen-anhalt"),
	},
	{
		name: "Internationaler Frauentag", month: time.March, day: 8,
		applies: func(state string, year int) bool {
			switch state {
			case "berlin":
				return year >= 2019
			case "mecklenburg-vorpommern":
				return year >= 2023
			}
			return false
		},
	},
	{
		name: "Fronleichnam", movable: true, offset: 60,
		applies: only("baden-württemberg", "bayern", "hessen",
			"nordrhein-westfalen", "rheinland-pfalz", "saarland"),
	},
	{
		name: "Mariä Himmelfahrt", month: time.August, day: 15,
		applies: only("bayern", "saarland"),
	},
	{
		name: "Ostersonntag", movable: true, offset: 0,
		applies: only("brandenburg"),
	},
	{
		name: "Pfingstsonntag", movable: true, offset: 49,
		applies: only("brandenburg"),
	},
	{
		name: "Weltkindertag", month: time.September, day: 20,
		applies: func(state string, year int) bool {
			return state == "thüringen" && year >= 2019
		},
	},
	{
		name: "Reformationstag", month: time.October, day: 31,
		// 2017 was the 500th anniversary: a nationwide one-off that
		// overrides the per-state sets entirely.
		applies: func(state string, year int) bool {
			if year == 2017 {
				return true
			}
			if reformationAlways[state] {
				return true
			}
			return reformationFrom2018[state] && year >= 2018
		},
	},
	{
		name: "Allerheiligen", month: time.November, day: 1,
		applies: only("baden-württemberg", "bayern", "nordrhein-westfalen",
			"rheinland-pfalz", "saarland"),
	},
	{
		name: "Buß- und Bettag", compute: RepentanceDay,
		applies: only("sachsen"),
	},
	{
		name: "Tag der Befreiung", month: time.May, day: 8,
		applies: func(state string, year int) bool {
			return state == "berlin" && (year == 2020 || year == 2025)
		},
	},
}

// Holidays returns the public holidays of the given state for the given
// year, sorted ascending by date. The state name must match one of
// States exactly (lowercase, diacritics included); anything else yields
// ErrUnknownState and no partial result.
func Holidays(state string, year int) ([]Entry, error) {
	if _, ok := subdivisionCodes[state]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}

	easter := EasterSunday(year)

	entries := make([]Entry, 0, len(rules))
	for _, r := range rules {
		if r.applies != nil && !r.applies(state, year) {
			continue
		}
		var d time.Time
		switch {
		case r.compute != nil:
			d = r.compute(year)
		case r.movable:
			d = easter.AddDate(0, 0, r.offset)
		default:
			d = date(year, r.month, r.day)
		}
		entries = append(entries, Entry{Date: d, Name: r.name})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}
