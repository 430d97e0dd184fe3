package holiday

import (
	"errors"
	"testing"
	"time"
)

func TestEasterSunday(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
	}{
		{1900, time.April, 15},
		{1954, time.April, 18},
		{2000, time.April, 23},
		{2016, time.March, 27},
		{2017, time.April, 16},
		{2024, time.March, 31},
		{2025, time.April, 20},
		{2038, time.April, 25},
		{2100, time.March, 28},
	}

	for _, tt := range tests {
		got := EasterSunday(tt.year)
		if got.Year() != tt.year || got.Month() != tt.month || got.Day() != tt.day {
			t.Errorf("EasterSunday(%d) = %s, want %d-%02d-%02d",
				tt.year, got.Format("2006-01-02"), tt.year, tt.month, tt.day)
		}
	}
}

func TestEasterSundayRange(t *testing.T) {
	for year := 1900; year <= 2100; year++ {
		got := EasterSunday(year)
		if got.Month() != time.March && got.Month() != time.April {
			t.Errorf("EasterSunday(%d) = %s, not in March or April", year, got.Format("2006-01-02"))
		}
		if got.Weekday() != time.Sunday {
			t.Errorf("EasterSunday(%d) = %s, not a Sunday", year, got.Format("2006-01-02"))
		}
	}
}

func TestRepentanceDay(t *testing.T) {
	for year := 1900; year <= 2100; year++ {
		got := RepentanceDay(year)
		if got.Weekday() != time.Wednesday {
			t.Errorf("RepentanceDay(%d) = %s, not a Wednesday", year, got.Format("2006-01-02"))
		}
		if got.Month() != time.November || got.Day() < 16 || got.Day() > 22 {
			t.Errorf("RepentanceDay(%d) = %s, outside [Nov 16, Nov 22]", year, got.Format("2006-01-02"))
		}
	}

	// Spot checks.
	if got := RepentanceDay(2024); got.Day() != 20 {
		t.Errorf("RepentanceDay(2024) = %s, want 2024-11-20", got.Format("2006-01-02"))
	}
	if got := RepentanceDay(2025); got.Day() != 19 {
		t.Errorf("RepentanceDay(2025) = %s, want 2025-11-19", got.Format("2006-01-02"))
	}
}

func hasHoliday(t *testing.T, state string, year int, name string) bool {
	t.Helper()
	entries, err := Holidays(state, year)
	if err != nil {
		t.Fatalf("Holidays(%q, %d): %v", state, year, err)
	}
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

func TestReformationstag(t *testing.T) {
	tests := []struct {
		state string
		year  int
		want  bool
	}{
		// 2017 nationwide override: even states outside both sets.
		{"sachsen", 2017, true},
		{"hessen", 2017, true},
		{"baden-württemberg", 2017, true},
		// Always-set states.
		{"brandenburg", 2016, true},
		{"sachsen", 2016, true},
		{"thüringen", 2020, true},
		// From-2018 states.
		{"bremen", 2016, false},
		{"bremen", 2018, true},
		{"hamburg", 2017, true},
		{"schleswig-holstein", 2019, true},
		{"niedersachsen", 2017, true},
		// Never (outside 2017).
		{"hessen", 2016, false},
		{"bayern", 2020, false},
	}

	for _, tt := range tests {
		if got := hasHoliday(t, tt.state, tt.year, "Reformationstag"); got != tt.want {
			t.Errorf("Reformationstag in %s/%d = %v, want %v", tt.state, tt.year, got, tt.want)
		}
	}
}

func TestTagDerBefreiung(t *testing.T) {
	tests := []struct {
		state string
		year  int
		want  bool
	}{
		{"berlin", 2020, true},
		{"berlin", 2025, true},
		{"berlin", 2019, false},
		{"berlin", 2021, false},
		{"brandenburg", 2020, false},
	}

	for _, tt := range tests {
		if got := hasHoliday(t, tt.state, tt.year, "Tag der Befreiung"); got != tt.want {
			t.Errorf("Tag der Befreiung in %s/%d = %v, want %v", tt.state, tt.year, got, tt.want)
		}
	}

	// The date itself must be May 8.
	entries, err := Holidays("berlin", 2025)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name == "Tag der Befreiung" {
			if e.Date.Month() != time.May || e.Date.Day() != 8 {
				t.Errorf("Tag der Befreiung = %s, want 2025-05-08", e.Date.Format("2006-01-02"))
			}
		}
	}
}

func TestFrauentag(t *testing.T) {
	tests := []struct {
		state string
		year  int
		want  bool
	}{
		{"berlin", 2018, false},
		{"berlin", 2019, true},
		{"mecklenburg-vorpommern", 2022, false},
		{"mecklenburg-vorpommern", 2023, true},
		{"hamburg", 2023, false},
	}

	for _, tt := range tests {
		if got := hasHoliday(t, tt.state, tt.year, "Internationaler Frauentag"); got != tt.want {
			t.Errorf("Frauentag in %s/%d = %v, want %v", tt.state, tt.year, got, tt.want)
		}
	}
}

func TestWeltkindertag(t *testing.T) {
	if hasHoliday(t, "thüringen", 2018, "Weltkindertag") {
		t.Error("Weltkindertag in thüringen/2018 should not exist")
	}
	if !hasHoliday(t, "thüringen", 2019, "Weltkindertag") {
		t.Error("Weltkindertag in thüringen/2019 missing")
	}
	if hasHoliday(t, "sachsen", 2020, "Weltkindertag") {
		t.Error("Weltkindertag in sachsen/2020 should not exist")
	}
}

func TestHolidaysSorted(t *testing.T) {
	for _, state := range States {
		for year := 2015; year <= 2030; year++ {
			entries, err := Holidays(state, year)
			if err != nil {
				t.Fatalf("Holidays(%q, %d): %v", state, year, err)
			}
			for i := 1; i < len(entries); i++ {
				if entries[i].Date.Before(entries[i-1].Date) {
					t.Errorf("Holidays(%q, %d) not sorted: %s after %s",
						state, year,
						entries[i-1].Date.Format("2006-01-02"),
						entries[i].Date.Format("2006-01-02"))
				}
			}
		}
	}
}

func TestHolidayCounts(t *testing.T) {
	// 2022 avoids all year-conditioned special cases except the
	// standing sets (Frauentag in Berlin is active from 2019).
	tests := []struct {
		state string
		want  int
	}{
		{"hessen", 10},      // 9 nationwide + Fronleichnam
		{"berlin", 10},      // 9 + Frauentag
		{"brandenburg", 12}, // 9 + Reformationstag + Ostersonntag + Pfingstsonntag
		{"bayern", 13},      // 9 + Hl. Drei Könige + Fronleichnam + Mariä Himmelfahrt + Allerheiligen
		{"sachsen", 11},     // 9 + Reformationstag + Buß- und Bettag
		{"thüringen", 11},   // 9 + Reformationstag + Weltkindertag
		{"hamburg", 10},     // 9 + Reformationstag (since 2018)
	}

	for _, tt := range tests {
		entries, err := Holidays(tt.state, 2022)
		if err != nil {
			t.Fatalf("Holidays(%q, 2022): %v", tt.state, err)
		}
		if len(entries) != tt.want {
			t.Errorf("Holidays(%q, 2022) has %d entries, want %d", tt.state, len(entries), tt.want)
		}
	}
}

func TestHolidaysUnknownState(t *testing.T) {
	entries, err := Holidays("atlantis", 2025)
	if !errors.Is(err, ErrUnknownState) {
		t.Errorf("Holidays(atlantis) error = %v, want ErrUnknownState", err)
	}
	if entries != nil {
		t.Errorf("Holidays(atlantis) returned partial result: %v", entries)
	}

	// Case and diacritics are significant.
	if _, err := Holidays("Bayern", 2025); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Holidays(Bayern) error = %v, want ErrUnknownState", err)
	}
	if _, err := Holidays("thuringen", 2025); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Holidays(thuringen) error = %v, want ErrUnknownState", err)
	}
}

func TestSubdivisionCode(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{"baden-württemberg", "DE-BW"},
		{"bayern", "DE-BY"},
		{"sachsen", "DE-SN"},
		{"sachsen-anhalt", "DE-ST"},
		{"thüringen", "DE-TH"},
	}

	for _, tt := range tests {
		got, err := SubdivisionCode(tt.state)
		if err != nil {
			t.Fatalf("SubdivisionCode(%q): %v", tt.state, err)
		}
		if got != tt.want {
			t.Errorf("SubdivisionCode(%q) = %q, want %q", tt.state, got, tt.want)
		}
	}

	if _, err := SubdivisionCode("atlantis"); !errors.Is(err, ErrUnknownState) {
		t.Errorf("SubdivisionCode(atlantis) error = %v, want ErrUnknownState", err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"bayern", "Bayern"},
		{"baden-württemberg", "Baden-Württemberg"},
		{"mecklenburg-vorpommern", "Mecklenburg-Vorpommern"},
		{"thüringen", "Thüringen"},
		{"schleswig-holstein", "Schleswig-Holstein"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatesHaveSubdivisionCodes(t *testing.T) {
	if len(States) != 16 {
		t.Fatalf("States has %d entries, want 16", len(States))
	}
	for _, state := range States {
		if _, err := SubdivisionCode(state); err != nil {
			t.Errorf("state %q has no subdivision code", state)
		}
	}
}
