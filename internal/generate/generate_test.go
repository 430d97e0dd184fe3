package generate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feiertagskal/internal/holiday"
	"feiertagskal/internal/ical"
)

var testICal = ical.Config{ProdID: "test prodid", URL: "https://example.org"}

func TestFeiertage(t *testing.T) {
	res := Feiertage(Options{
		States:    []string{"bayern", "berlin"},
		YearStart: 2025,
		YearEnd:   2025,
		ICal:      testICal,
		Timestamp: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	})

	if len(res.Failed) != 0 {
		t.Fatalf("unexpected failures: %v", res.Failed)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(res.Documents))
	}

	bayern := res.Documents["bayern"]
	for _, want := range []string{
		"NAME:Bayern Feiertage",
		"X-WR-CALNAME:Bayern Feiertage",
		"SUMMARY:Allerheiligen",
		"SUMMARY:Heilige Drei Könige",
		"DTSTART;VALUE=DATE:20250101",
		"DTEND;VALUE=DATE:20250102",
	} {
		if !strings.Contains(bayern, want) {
			t.Errorf("bayern document missing %q", want)
		}
	}

	// Berlin 2025 includes the one-off Tag der Befreiung.
	if !strings.Contains(res.Documents["berlin"], "SUMMARY:Tag der Befreiung") {
		t.Error("berlin 2025 document missing Tag der Befreiung")
	}
}

func TestFeiertageEventCountPerYear(t *testing.T) {
	res := Feiertage(Options{
		States:    []string{"bayern"},
		YearStart: 2024,
		YearEnd:   2025,
		ICal:      testICal,
		Timestamp: time.Now().UTC(),
	})

	doc := res.Documents["bayern"]
	// Bayern has 13 holidays per year; two years requested.
	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 26 {
		t.Errorf("bayern 2024-2025 has %d events, want 26", got)
	}

	count, err := ical.Verify(doc)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if count != 26 {
		t.Errorf("Verify counted %d events, want 26", count)
	}
}

func TestFeiertageFailureIsolation(t *testing.T) {
	res := Feiertage(Options{
		States:    []string{"bayern", "atlantis", "sachsen"},
		YearStart: 2025,
		YearEnd:   2025,
		ICal:      testICal,
		Timestamp: time.Now().UTC(),
	})

	if len(res.Documents) != 2 {
		t.Errorf("got %d documents, want 2 (bayern, sachsen)", len(res.Documents))
	}
	if _, ok := res.Documents["bayern"]; !ok {
		t.Error("bayern missing despite atlantis failure")
	}
	if _, ok := res.Documents["sachsen"]; !ok {
		t.Error("sachsen missing despite atlantis failure")
	}

	err, ok := res.Failed["atlantis"]
	if !ok {
		t.Fatal("atlantis not recorded as failed")
	}
	if !errors.Is(err, holiday.ErrUnknownState) {
		t.Errorf("atlantis failure = %v, want ErrUnknownState", err)
	}
}

func TestFeiertageDefaultsToAllStates(t *testing.T) {
	res := Feiertage(Options{
		YearStart: 2025,
		YearEnd:   2025,
		ICal:      testICal,
		Timestamp: time.Now().UTC(),
	})

	if len(res.Documents) != 16 {
		t.Errorf("got %d documents, want 16", len(res.Documents))
	}
	if len(res.Failed) != 0 {
		t.Errorf("unexpected failures: %v", res.Failed)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	docs := map[string]string{
		"bayern":  "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n",
		"sachsen": "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n",
	}
	if err := WriteFiles(dir, docs); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}

	for state := range docs {
		data, err := os.ReadFile(filepath.Join(dir, state+".ics"))
		if err != nil {
			t.Fatalf("reading %s.ics: %v", state, err)
		}
		if string(data) != docs[state] {
			t.Errorf("%s.ics content mismatch", state)
		}
	}
}
