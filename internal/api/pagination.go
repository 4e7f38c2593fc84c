package api

import (
	"fmt"
	"strconv"
)

const defaultPageCount = 10

// pagination mirrors the skip/count query parameters used to page
// through the jobs collection: missing skip defaults to 0, missing
// count defaults to defaultPageCount, and both are floored at 0.
type pagination struct {
	Skip  int
	Count int
}

func parsePagination(skipStr, countStr string) (pagination, error) {
	p := pagination{Skip: 0, Count: defaultPageCount}
	if skipStr != "" {
		v, err := strconv.Atoi(skipStr)
		if err != nil {
			return p, fmt.Errorf("invalid skip %q: %w", skipStr, err)
		}
		p.Skip = v
	}
	if countStr != "" {
		v, err := strconv.Atoi(countStr)
		if err != nil {
			return p, fmt.Errorf("invalid count %q: %w", countStr, err)
		}
		p.Count = v
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Count < 0 {
		p.Count = 0
	}
	return p, nil
}

// linkFor builds a prev/next pagination link for the jobs collection at
// the given skip/count, or nil if that page is out of range.
func linkFor(baseHref string, skip, count, total int) *Link {
	if total <= 0 || (skip+count) <= 0 || skip >= total {
		return nil
	}
	if skip < 0 {
		skip = 0
	}
	return &Link{
		Rel:   "jobs",
		Title: "Jobs",
		Href:  fmt.Sprintf("%s?skip=%d&count=%d", baseHref, skip, count),
	}
}
