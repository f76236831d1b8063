package race

import (
	"sort"
	"time"
)

// Wildcard matches every value on its axis.
const Wildcard = "all"

// DateRange names a relative date window for filtering.
type DateRange string

const (
	DateRangeAll      DateRange = Wildcard
	DateRangeNext7    DateRange = "next7"
	DateRangeNext30   DateRange = "next30"
	DateRangeNext60   DateRange = "next60"
	DateRangeNext90   DateRange = "next90"
	DateRangeThisYear DateRange = "thisYear"
)

// Valid reports whether d is one of the recognized date ranges.
func (d DateRange) Valid() bool {
	switch d {
	case DateRangeAll, DateRangeNext7, DateRangeNext30, DateRangeNext60,
		DateRangeNext90, DateRangeThisYear:
		return true
	}
	return false
}

// Criteria is the user-selected filter tuple. Zero values are normalized to the
// wildcard so an absent query parameter keeps everything on that axis.
type Criteria struct {
	Type      string
	State     string
	DateRange DateRange
}

func (c Criteria) normalized() Criteria {
	if c.Type == "" {
		c.Type = Wildcard
	}
	if c.State == "" {
		c.State = Wildcard
	}
	if c.DateRange == "" {
		c.DateRange = DateRangeAll
	}
	return c
}

// Filter returns the subset of races matching every axis of the criteria,
// evaluated against now. It never mutates the input; the predicates compose
// with logical AND and are independent, so evaluation order does not matter.
func Filter(races []Race, c Criteria, now time.Time) []Race {
	c = c.normalized()

	out := make([]Race, 0, len(races))
	for _, r := range races {
		if !matchType(r, c.Type) {
			continue
		}
		if c.State != Wildcard && r.State != c.State {
			continue
		}
		if !matchDateRange(r.RaceDate, c.DateRange, now) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchType(r Race, label string) bool {
	if label == Wildcard {
		return true
	}
	return r.Types.Contains(label)
}

// matchDateRange evaluates the relative date window. A nil race date can never
// satisfy an inequality, so it only passes the wildcard.
func matchDateRange(raceDate *time.Time, dr DateRange, now time.Time) bool {
	if dr == DateRangeAll {
		return true
	}
	if raceDate == nil {
		return false
	}

	switch dr {
	case DateRangeNext7:
		return withinDays(*raceDate, now, 7)
	case DateRangeNext30:
		return withinDays(*raceDate, now, 30)
	case DateRangeNext60:
		return withinDays(*raceDate, now, 60)
	case DateRangeNext90:
		return withinDays(*raceDate, now, 90)
	case DateRangeThisYear:
		endOfYear := time.Date(now.Year()+1, time.January, 1, 0, 0, 0, 0, now.Location())
		return !raceDate.Before(now) && raceDate.Before(endOfYear)
	default:
		return false
	}
}

// withinDays keeps races between now and now+days inclusive on both ends.
func withinDays(raceDate, now time.Time, days int) bool {
	diff := raceDate.Sub(now)
	return diff >= 0 && diff <= time.Duration(days)*24*time.Hour
}

// Option is a filter choice with the number of races carrying it.
type Option struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TypeOptions returns the distinct category labels across the full set, with
// per-label race counts, sorted alphabetically. Label lists are flattened and a
// race counts once per distinct label it carries. Counts always reflect the
// unfiltered input, not any currently filtered view.
func TypeOptions(races []Race) []Option {
	counts := make(map[string]int)
	for _, r := range races {
		seen := make(map[string]bool, len(r.Types))
		for _, label := range r.Types {
			if label == "" || seen[label] {
				continue
			}
			seen[label] = true
			counts[label]++
		}
	}
	return sortedOptions(counts)
}

// StateOptions returns the distinct state codes with race counts, sorted.
func StateOptions(races []Race) []Option {
	counts := make(map[string]int)
	for _, r := range races {
		if r.State == "" {
			continue
		}
		counts[r.State]++
	}
	return sortedOptions(counts)
}

func sortedOptions(counts map[string]int) []Option {
	opts := make([]Option, 0, len(counts))
	for label, n := range counts {
		opts = append(opts, Option{Label: label, Count: n})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Label < opts[j].Label })
	return opts
}
