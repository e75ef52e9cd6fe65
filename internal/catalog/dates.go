package catalog

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// ErrMalformedDate is returned by ParseDate for values not shaped YYYY-MM-DD.
var ErrMalformedDate = errors.New("date must match YYYY-MM-DD")

// DatePattern is the shape of start_date and end_date. It only checks the
// shape; the day may take one or two digits.
var DatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{1,2})$`)

// ParseDate reads a date argument as midnight UTC. Values outside the
// calendar roll over the way time.Date normalizes them, so 2020-02-30 is
// 2020-03-01.
func ParseDate(v string) (time.Time, error) {
	m := DatePattern.FindStringSubmatch(v)
	if m == nil {
		return time.Time{}, ErrMalformedDate
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
