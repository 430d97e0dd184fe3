// Package generate assembles rendered calendar documents from the rule
// engine or the external data source, one document per Bundesland.
package generate

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"feiertagskal/internal/holiday"
	"feiertagskal/internal/ical"
	appLog "feiertagskal/internal/log"
	"feiertagskal/internal/openholidays"
)

// Options controls one generation run.
type Options struct {
	// States restricts the run; empty means all 16.
	States []string

	// YearStart and YearEnd are inclusive.
	YearStart int
	YearEnd   int

	// ICal carries the document constants (PRODID, URL).
	ICal ical.Config

	// Timestamp is the single UTC instant stamped into every event of
	// the run (CREATED / LAST-MODIFIED / DTSTAMP).
	Timestamp time.Time
}

func (o Options) states() []string {
	if len(o.States) == 0 {
		return holiday.States
	}
	return o.States
}

// Result maps state names to rendered documents. States that failed are
// collected separately; one failing state never blocks the others.
type Result struct {
	Documents map[string]string
	Failed    map[string]error
}

// Feiertage computes public holidays from the rule engine for every
// requested state over [YearStart, YearEnd] and renders one calendar
// document per state.
func Feiertage(opts Options) Result {
	res := Result{
		Documents: make(map[string]string),
		Failed:    make(map[string]error),
	}

	for _, state := range opts.states() {
		var events []ical.Event
		var stateErr error

		for year := opts.YearStart; year <= opts.YearEnd; year++ {
			entries, err := holiday.Holidays(state, year)
			if err != nil {
				stateErr = err
				break
			}
			for _, e := range entries {
				events = append(events, ical.Event{
					Summary: e.Name,
					Start:   e.Date,
					End:     e.Date.AddDate(0, 0, 1),
				})
			}
		}

		if stateErr != nil {
			appLog.Error("feiertage generation failed for state", stateErr, "state", state)
			res.Failed[state] = stateErr
			continue
		}

		cal := ical.Calendar{
			Name:   holiday.DisplayName(state) + " Feiertage",
			Events: events,
		}
		res.Documents[state] = cal.Render(opts.ICal, opts.Timestamp)
	}

	return res
}

// FeiertageFromAPI builds the same per-state calendars from the external
// holiday lookup service instead of the rule engine.
func FeiertageFromAPI(ctx context.Context, client *openholidays.Client, opts Options) Result {
	res := Result{
		Documents: make(map[string]string),
		Failed:    make(map[string]error),
	}

	for _, state := range opts.states() {
		code, err := holiday.SubdivisionCode(state)
		if err != nil {
			res.Failed[state] = err
			continue
		}

		var events []ical.Event
		var stateErr error

		for year := opts.YearStart; year <= opts.YearEnd; year++ {
			byName, err := client.PublicHolidays(ctx, code, year)
			if err != nil {
				stateErr = err
				break
			}
			names := make([]string, 0, len(byName))
			for name := range byName {
				names = append(names, name)
			}
			// Map iteration order is random; sort by date, then name.
			sort.Slice(names, func(i, j int) bool {
				di, dj := byName[names[i]], byName[names[j]]
				if !di.Equal(dj) {
					return di.Before(dj)
				}
				return names[i] < names[j]
			})
			for _, name := range names {
				d := byName[name]
				events = append(events, ical.Event{
					Summary: name,
					Start:   d,
					End:     d.AddDate(0, 0, 1),
				})
			}
		}

		if stateErr != nil {
			appLog.Error("api feiertage generation failed for state", stateErr, "state", state)
			res.Failed[state] = stateErr
			continue
		}

		cal := ical.Calendar{
			Name:   holiday.DisplayName(state) + " Feiertage",
			Events: events,
		}
		res.Documents[state] = cal.Render(opts.ICal, opts.Timestamp)
	}

	return res
}

// Ferien builds one school-vacation calendar per state from the
// external data source. Vacation end dates arrive inclusive and are
// rendered with the exclusive day added.
func Ferien(ctx context.Context, client *openholidays.Client, opts Options) Result {
	res := Result{
		Documents: make(map[string]string),
		Failed:    make(map[string]error),
	}

	from := time.Date(opts.YearStart, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(opts.YearEnd, time.December, 31, 0, 0, 0, 0, time.UTC)

	for _, state := range opts.states() {
		code, err := holiday.SubdivisionCode(state)
		if err != nil {
			res.Failed[state] = err
			continue
		}

		vacations, err := client.SchoolHolidays(ctx, code, from, to)
		if err != nil {
			appLog.Error("ferien generation failed for state", err, "state", state)
			res.Failed[state] = err
			continue
		}

		events := make([]ical.Event, 0, len(vacations))
		for _, v := range vacations {
			summary := v.Name("DE")
			if summary == "" {
				continue
			}
			events = append(events, ical.Event{
				Summary: summary,
				Start:   v.Start,
				End:     v.End.AddDate(0, 0, 1),
			})
		}

		cal := ical.Calendar{
			Name:   holiday.DisplayName(state) + " Ferien",
			Events: events,
		}
		res.Documents[state] = cal.Render(opts.ICal, opts.Timestamp)
	}

	return res
}

// WriteFiles writes each document to <dir>/<state>.ics, creating the
// directory on demand.
func WriteFiles(dir string, docs map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	states := make([]string, 0, len(docs))
	for state := range docs {
		states = append(states, state)
	}
	sort.Strings(states)

	for _, state := range states {
		path := filepath.Join(dir, state+".ics")
		if err := os.WriteFile(path, []byte(docs[state]), 0o644); err != nil {
			return err
		}
		appLog.Info("wrote calendar", "path", path)
	}
	return nil
}
