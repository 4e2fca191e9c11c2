// Package cron parses and evaluates standard 5-field cron expressions
// (minute hour day-of-month month day-of-week). No third-party cron
// parser appears anywhere in the retrieval pack, so this is a small
// hand-rolled evaluator scoped to what the scheduled-job runtime
// needs: parse-and-validate at startup, then ask "does this expression
// match this minute" on each tick.
package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed cron expression.
type Schedule struct {
	minutes  fieldSet
	hours    fieldSet
	doms     fieldSet
	months   fieldSet
	dows     fieldSet
	original string
}

type fieldSet map[int]bool

var fieldBounds = [5][2]int{
	{0, 59}, // minute
	{0, 23}, // hour
	{1, 31}, // day of month
	{1, 12}, // month
	{0, 6},  // day of week, 0 = Sunday
}

// Parse validates and compiles a 5-field cron expression.
func Parse(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron: expected 5 fields, got %d in %q", len(fields), expr)
	}

	sets := make([]fieldSet, 5)
	for i, f := range fields {
		set, err := parseField(f, fieldBounds[i][0], fieldBounds[i][1])
		if err != nil {
			return nil, fmt.Errorf("cron: field %d (%q): %w", i, f, err)
		}
		sets[i] = set
	}

	return &Schedule{
		minutes:  sets[0],
		hours:    sets[1],
		doms:     sets[2],
		months:   sets[3],
		dows:     sets[4],
		original: expr,
	}, nil
}

// Matches reports whether t falls on a minute this schedule fires.
// Seconds are ignored; callers are expected to tick once per minute.
func (s *Schedule) Matches(t time.Time) bool {
	return s.minutes[t.Minute()] &&
		s.hours[t.Hour()] &&
		s.doms[t.Day()] &&
		s.months[int(t.Month())] &&
		s.dows[int(t.Weekday())]
}

// String returns the original expression text.
func (s *Schedule) String() string {
	return s.original
}

func parseField(f string, min, max int) (fieldSet, error) {
	set := fieldSet{}
	for _, part := range strings.Split(f, ",") {
		if err := parsePart(part, min, max, set); err != nil {
			return nil, err
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no values matched")
	}
	return set, nil
}

func parsePart(part string, min, max int, set fieldSet) error {
	step := 1
	if idx := strings.Index(part, "/"); idx != -1 {
		stepStr := part[idx+1:]
		part = part[:idx]
		n, err := strconv.Atoi(stepStr)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid step %q", stepStr)
		}
		step = n
	}

	rangeStart, rangeEnd := min, max
	switch {
	case part == "*" || part == "":
		// full range, already set above
	case strings.Contains(part, "-"):
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return fmt.Errorf("invalid range %q", part)
		}
		a, err := strconv.Atoi(bounds[0])
		if err != nil {
			return fmt.Errorf("invalid range start %q", bounds[0])
		}
		b, err := strconv.Atoi(bounds[1])
		if err != nil {
			return fmt.Errorf("invalid range end %q", bounds[1])
		}
		rangeStart, rangeEnd = a, b
	default:
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid value %q", part)
		}
		rangeStart, rangeEnd = n, n
	}

	if rangeStart < min || rangeEnd > max || rangeStart > rangeEnd {
		return fmt.Errorf("value out of bounds [%d,%d]", min, max)
	}

	for v := rangeStart; v <= rangeEnd; v += step {
		set[v] = true
	}
	return nil
}
