package timestamp

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Fields
	}{
		{"utc zulu", "2024-01-15T14:30:00Z", Fields{2024, 1, 15, 14, 30, 0}},
		{"negative offset stripped", "2024-01-15T14:30:00-05:00", Fields{2024, 1, 15, 14, 30, 0}},
		{"positive offset with fraction", "2024-01-15T14:30:00.123456+00:00", Fields{2024, 1, 15, 14, 30, 0}},
		{"space separated", "2024-01-15 14:30:00", Fields{2024, 1, 15, 14, 30, 0}},
		{"no seconds", "2024-01-15T14:30+05:00", Fields{2024, 1, 15, 14, 30, 0}},
		{"fraction only", "2024-12-31T23:59:59.000001", Fields{2024, 12, 31, 23, 59, 59}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if !ok {
				t.Fatalf("Parse(%q) failed", tt.input)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_OffsetStrippedNotApplied(t *testing.T) {
	// The offset is discarded, not used to shift the time value.
	got, ok := Parse("2024-01-15T14:30:00-05:00")
	if !ok {
		t.Fatal("parse failed")
	}
	if got.Hour != 14 || got.Minute != 30 {
		t.Errorf("offset was applied: got %02d:%02d, want 14:30", got.Hour, got.Minute)
	}
}

func TestParse_Malformed(t *testing.T) {
	inputs := []string{
		"not-a-date",
		"",
		"2024-01-15",          // no time portion
		"2024-01-15T14",       // fewer than two time components
		"2024-01-15Tqq:30:00", // non-numeric hour
		"2024-01T14:30:00",    // short date
	}
	for _, in := range inputs {
		if _, ok := Parse(in); ok {
			t.Errorf("Parse(%q) = ok, want failure", in)
		}
	}
}

func TestStripOffset_NegativeSuffixAmbiguity(t *testing.T) {
	// "-HH:MM" is only an offset when both trailing components are two-digit
	// numerics; otherwise the dash belongs to the payload and stays.
	tests := []struct {
		in   string
		want string
	}{
		{"14:30:00-05:00", "14:30:00"},
		{"14:30:00-5:00", "14:30:00-5:00"},
		{"14:30:00-aa:bb", "14:30:00-aa:bb"},
		{"14:30:00-05:00:00", "14:30:00-05:00:00"},
		{"14:30:00+09:30", "14:30:00"},
	}
	for _, tt := range tests {
		if got := stripOffset(tt.in); got != tt.want {
			t.Errorf("stripOffset(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMinutesUntil(t *testing.T) {
	tests := []struct {
		name    string
		arrival Fields
		now     Fields
		want    int
	}{
		{
			"same day future",
			Fields{2024, 1, 15, 14, 45, 0},
			Fields{2024, 1, 15, 14, 30, 0},
			15,
		},
		{
			"midnight rollover",
			Fields{2024, 1, 16, 0, 10, 0},
			Fields{2024, 1, 15, 23, 50, 0},
			20,
		},
		{
			"same day past is negative",
			Fields{2024, 1, 15, 14, 0, 0},
			Fields{2024, 1, 15, 14, 30, 0},
			-30,
		},
		{
			"month rollover",
			Fields{2024, 2, 1, 0, 5, 0},
			Fields{2024, 1, 31, 23, 55, 0},
			10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinutesUntil(tt.arrival, tt.now); got != tt.want {
				t.Errorf("MinutesUntil = %d, want %d", got, tt.want)
			}
		})
	}
}
