package window

import (
	"errors"
	"strings"
	"time"
)

// KeyLayout is the partition key format for daily documents.
const KeyLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid service date")

// DateOf returns midnight of t's calendar day in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func Key(d time.Time) string {
	return d.Format(KeyLayout)
}

func ParseKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(KeyLayout, strings.TrimSpace(key), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// AddDays moves by calendar days, not by 24h steps.
func AddDays(d time.Time, days int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day()+days, 0, 0, 0, 0, d.Location())
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
