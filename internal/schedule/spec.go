package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Spec is a parsed 8-field schedule. It implements robfig/cron/v3's
// Schedule interface (Next(time.Time) time.Time) so the scheduler engine
// can register it directly with a cron.Cron runner.
type Spec struct {
	Second    fieldMatcher
	Minute    fieldMatcher
	Hour      fieldMatcher
	DayOfWeek dowMatcher
	Week      fieldMatcher
	Day       fieldMatcher
	Month     fieldMatcher
	Year      fieldMatcher

	Location *time.Location
}

// fieldRange describes the valid [min,max] bounds for a schedule field.
type fieldRange struct {
	min, max int
}

var (
	rangeSecond = fieldRange{0, 59}
	rangeMinute = fieldRange{0, 59}
	rangeHour   = fieldRange{0, 23}
	rangeDow    = fieldRange{0, 6} // 0=mon .. 6=sun, matching the weekday() convention the schedule grammar was distilled from
	rangeWeek   = fieldRange{1, 53}
	rangeDay    = fieldRange{1, 31}
	rangeMonth  = fieldRange{1, 12}
)

var dowNames = map[string]int{
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

var dowOrdinals = map[string]int{
	"1st": 1, "2nd": 2, "3rd": 3, "4th": 4, "5th": 5,
}

const wildcardToken = "?"
const lastToken = "last"

// fieldNames lists the 8 positional field names, in order, as used in
// error messages and in the canonical schedule string representation.
var fieldNames = []string{"second", "minute", "hour", "day_of_week", "week", "day", "month", "year"}

// ParseError reports a field-level schedule parsing failure.
type ParseError struct {
	Field string
	Msg   string
}

func (e *ParseError) Error() string { return fmt.Sprintf("schedule: field %q: %s", e.Field, e.Msg) }

func fieldError(field, msg string, args ...any) *ParseError {
	return &ParseError{Field: field, Msg: fmt.Sprintf(msg, args...)}
}

func splitFields(raw string) []string {
	return strings.Fields(strings.TrimSpace(raw))
}

func parseIntField(tok string) (int, error) {
	tok = strings.TrimSpace(tok)
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", tok)
	}
	return n, nil
}
