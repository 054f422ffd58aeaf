// Package importer implements the order import engine: parsing pasted
// or uploaded order lists into candidate records, reconciling them
// against the known order set by order number and type priority, and
// committing the reviewed change-set.
package importer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid delivery date")

// compactDatePattern matches the second accepted layout, where a 1-2
// digit month runs straight into a 4-digit year: "15/82025".
var compactDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(\d{4})$`)

// ParseDeliveryDate parses a delivery date token in either D/M/Y or the
// compact D/MY layout into a UTC calendar date.
//
// Dates are pasted from spreadsheet exports with inconsistent
// formatting, and a silently corrupted date is worse than a dropped
// line, so after constructing the date the year and month must match
// the parsed inputs exactly. That rejects tokens like "31/02/2025"
// that would otherwise roll over into the next month.
func ParseDeliveryDate(token string) (time.Time, error) {
	trimmed := strings.TrimSpace(token)

	if day, month, year, ok := splitSlashDate(trimmed); ok {
		return buildDate(year, month, day)
	}
	if m := compactDatePattern.FindStringSubmatch(trimmed); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return buildDate(year, month, day)
	}
	return time.Time{}, ErrInvalidDate
}

func splitSlashDate(token string) (day, month, year int, ok bool) {
	parts := strings.Split(token, "/")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, false
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, false
	}
	year, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, false
	}
	return day, month, year, true
}

func buildDate(year, month, day int) (time.Time, error) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}
