package schedule

import (
	"testing"
	"time"
)

func TestParseAndNextBasic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		from string
		want string
	}{
		{
			name: "every minute at zero seconds",
			raw:  "0 * * * * * * *",
			from: "2026-08-06T10:15:30Z",
			want: "2026-08-06T10:16:00Z",
		},
		{
			name: "fixed hour and minute",
			raw:  "0 30 9",
			from: "2026-08-06T10:15:30Z",
			want: "2026-08-07T09:30:00Z",
		},
		{
			name: "every 15 minutes",
			raw:  "0 */15 * * * * * *",
			from: "2026-08-06T10:16:00Z",
			want: "2026-08-06T10:30:00Z",
		},
		{
			name: "day of month restricted",
			raw:  "0 0 0 * * 1",
			from: "2026-08-06T10:15:30Z",
			want: "2026-09-01T00:00:00Z",
		},
		{
			name: "month restricted",
			raw:  "0 0 0 * * 1 12",
			from: "2026-08-06T10:15:30Z",
			want: "2026-12-01T00:00:00Z",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec, err := Parse(tt.raw, time.UTC)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.raw, err)
			}
			from, err := time.Parse(time.RFC3339, tt.from)
			if err != nil {
				t.Fatalf("bad fixture time: %v", err)
			}
			want, err := time.Parse(time.RFC3339, tt.want)
			if err != nil {
				t.Fatalf("bad fixture time: %v", err)
			}
			got := spec.Next(from)
			if !got.Equal(want) {
				t.Fatalf("Next(%s) = %s, want %s", from, got, want)
			}
		})
	}
}

func TestParseDayOfWeekOrdinal(t *testing.T) {
	t.Parallel()
	// August 2026: Mondays fall on 3, 10, 17, 24, 31. "2nd_mon" is Aug 10.
	spec, err := Parse("0 0 0 2nd_mon", time.UTC)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	from, _ := time.Parse(time.RFC3339, "2026-08-01T00:00:00Z")
	got := spec.Next(from)
	want, _ := time.Parse(time.RFC3339, "2026-08-10T00:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", got, want)
	}
}

func TestParseDayOfWeekLast(t *testing.T) {
	t.Parallel()
	// Last Friday of August 2026 is Aug 28.
	spec, err := Parse("0 0 0 last_fri", time.UTC)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	from, _ := time.Parse(time.RFC3339, "2026-08-01T00:00:00Z")
	got := spec.Next(from)
	want, _ := time.Parse(time.RFC3339, "2026-08-28T00:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", got, want)
	}
}

func TestParseRejectsUnresolvedWildcard(t *testing.T) {
	t.Parallel()
	if _, err := Parse("? 0 0", time.UTC); err == nil {
		t.Fatal("expected error for unresolved wildcard")
	}
}

func TestParseRejectsWildcardOutsideTimeFields(t *testing.T) {
	t.Parallel()
	if _, err := Parse("0 0 0 ?", time.UTC); err == nil {
		t.Fatal("expected error: ? not valid in day_of_week")
	}
}

func TestResolveWildcardsInRange(t *testing.T) {
	t.Parallel()
	for i := 0; i < 20; i++ {
		resolved := ResolveWildcards("? ? ? * * *")
		spec, err := Parse(resolved, time.UTC)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", resolved, err)
		}
		if HasWildcard(resolved) {
			t.Fatalf("resolved schedule %q still has a wildcard", resolved)
		}
		_ = spec
	}
}

func TestParseInvalidField(t *testing.T) {
	t.Parallel()
	cases := []string{
		"60 0 0",     // second out of range
		"0 0 24",     // hour out of range
		"0 0 0 frob", // bad day_of_week token
		"0 0 0 * * 1 13", // month out of range
	}
	for _, raw := range cases {
		if _, err := Parse(raw, time.UTC); err == nil {
			t.Fatalf("Parse(%q): expected error", raw)
		}
	}
}

func TestYearFieldDefaultsToCurrentOrLater(t *testing.T) {
	t.Parallel()
	spec, err := Parse("0 0 0", time.UTC)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !spec.Year.match(time.Now().Year()) {
		t.Fatal("expected default year field to match the current year")
	}
	if spec.Year.match(time.Now().Year() - 1) {
		t.Fatal("expected default year field to reject a past year")
	}
}
