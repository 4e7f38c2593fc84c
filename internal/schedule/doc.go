// Package schedule parses and evaluates the 8-field job schedule grammar:
//
//	second minute hour day_of_week week day month year
//
// Fields are space-separated and positional; trailing fields may be
// omitted. Each field accepts "*", a bare integer, "*/N", "A-B", a
// comma-separated list of any of those, or (for second/minute/hour
// only) the "?" wildcard, which is resolved to a uniformly random
// in-range integer at create/schedule-update time and persisted from
// then on.
package schedule
