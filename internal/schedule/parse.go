package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Parse parses an 8-field schedule string:
//
//	second minute hour day_of_week week day month year
//
// Trailing fields may be omitted, in which case they default to "*"
// (year defaults to "current year or later" rather than "every year").
// Parse rejects the literal "?" wildcard with an error; a schedule using
// it in second/minute/hour must go through ResolveWildcards first and the
// result is parsed.
func Parse(raw string, loc *time.Location) (*Spec, error) {
	if loc == nil {
		loc = time.UTC
	}
	toks := splitFields(raw)
	if len(toks) == 0 {
		return nil, fmt.Errorf("schedule: empty schedule string")
	}
	if len(toks) > len(fieldNames) {
		return nil, fmt.Errorf("schedule: too many fields (%d, max %d)", len(toks), len(fieldNames))
	}
	get := func(i int) string {
		if i < len(toks) {
			return toks[i]
		}
		return "*"
	}

	spec := &Spec{Location: loc}

	second, err := parseSecMinHour("second", get(0), rangeSecond)
	if err != nil {
		return nil, err
	}
	spec.Second = second

	minute, err := parseSecMinHour("minute", get(1), rangeMinute)
	if err != nil {
		return nil, err
	}
	spec.Minute = minute

	hour, err := parseSecMinHour("hour", get(2), rangeHour)
	if err != nil {
		return nil, err
	}
	spec.Hour = hour

	dow, err := parseDayOfWeekField(get(3))
	if err != nil {
		return nil, err
	}
	spec.DayOfWeek = dow

	week, err := parseField("week", get(4), rangeWeek)
	if err != nil {
		return nil, err
	}
	spec.Week = week

	day, err := parseField("day", get(5), rangeDay)
	if err != nil {
		return nil, err
	}
	spec.Day = day

	month, err := parseField("month", get(6), rangeMonth)
	if err != nil {
		return nil, err
	}
	spec.Month = month

	year, err := parseYearField(get(7))
	if err != nil {
		return nil, err
	}
	spec.Year = year

	return spec, nil
}

// parseSecMinHour rejects the "?" wildcard: by the time a schedule reaches
// Parse it must already have been through ResolveWildcards.
func parseSecMinHour(field, raw string, rng fieldRange) (fieldMatcher, error) {
	if strings.TrimSpace(raw) == wildcardToken {
		return nil, fieldError(field, "unresolved wildcard %q; call ResolveWildcards first", wildcardToken)
	}
	return parseField(field, raw, rng)
}

func parseYearField(raw string) (fieldMatcher, error) {
	raw = strings.TrimSpace(raw)
	if raw == "*" || raw == "" {
		return yearMatcher{floor: time.Now().Year()}, nil
	}
	m, err := parseField("year", raw, fieldRange{min: 1970, max: 9999})
	if err != nil {
		return nil, err
	}
	sm, _ := m.(setMatcher)
	return yearMatcher{fixed: &sm}, nil
}

// HasWildcard reports whether any of the first three fields of raw is the
// unresolved "?" wildcard.
func HasWildcard(raw string) bool {
	toks := splitFields(raw)
	for i := 0; i < len(toks) && i < 3; i++ {
		if strings.TrimSpace(toks[i]) == wildcardToken {
			return true
		}
	}
	return false
}
