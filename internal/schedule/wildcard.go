package schedule

import (
	"math/rand"
	"strconv"
	"strings"
)

// ResolveWildcards replaces every "?" in the second/minute/hour positions
// of raw with a uniformly random in-range integer, so the result can be
// parsed and persisted as a concrete, stable schedule. Jobs resolve their
// wildcards once, at create time or whenever their schedule string is
// replaced wholesale; the resolved value is then reused for every
// subsequent evaluation until the schedule itself changes again.
func ResolveWildcards(raw string) string {
	toks := splitFields(raw)
	ranges := []fieldRange{rangeSecond, rangeMinute, rangeHour}
	for i := 0; i < len(toks) && i < len(ranges); i++ {
		if strings.TrimSpace(toks[i]) == wildcardToken {
			toks[i] = strconv.Itoa(randInRange(ranges[i]))
		}
	}
	return strings.Join(toks, " ")
}

func randInRange(rng fieldRange) int {
	return rng.min + rand.Intn(rng.max-rng.min+1)
}
