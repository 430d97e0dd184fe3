package ical

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Verify re-parses a rendered document with an independent iCalendar
// parser and checks the structural guarantees consumers rely on: every
// event carries a UID and date-only DTSTART/DTEND, and the start date
// strictly precedes the (exclusive) end date. It returns the number of
// events found.
func Verify(doc string) (int, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}

	events := cal.Events()
	for i, ev := range events {
		uid := ev.GetProperty(ics.ComponentPropertyUniqueId)
		if uid == nil || uid.Value == "" {
			return 0, fmt.Errorf("event %d: missing UID", i)
		}

		start, err := eventDate(ev, ics.ComponentPropertyDtStart)
		if err != nil {
			return 0, fmt.Errorf("event %d (%s): %w", i, uid.Value, err)
		}
		end, err := eventDate(ev, ics.ComponentPropertyDtEnd)
		if err != nil {
			return 0, fmt.Errorf("event %d (%s): %w", i, uid.Value, err)
		}

		if !start.Before(end) {
			return 0, fmt.Errorf("event %d (%s): start %s not before end %s",
				i, uid.Value, start.Format(dateLayout), end.Format(dateLayout))
		}
	}

	return len(events), nil
}

func eventDate(ev *ics.VEvent, prop ics.ComponentProperty) (time.Time, error) {
	p := ev.GetProperty(prop)
	if p == nil || p.Value == "" {
		return time.Time{}, errors.New("missing " + string(prop))
	}
	t, err := time.Parse(dateLayout, p.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: not a date value: %w", string(prop), err)
	}
	return t, nil
}
