package checker

import (
	"fmt"
	"time"
)

// Digit string layouts. Index 0 is the 24 hour clock and index 1 the 12 hour
// clock; check keys store the index, so the order must not change.
var digitLayouts = [2]string{
	"20060102150405", // 24 hour
	"20060102030405", // 12 hour
}

// DateInputLayout is the format accepted by the manual /check command.
const DateInputLayout = "2006-01-02T15:04:05"

// DigitStrings renders t in loc as its 24 and 12 hour digit strings.
// 2020-10-22T12:51:24 -> 20201022125124
func DigitStrings(t time.Time, loc *time.Location) [2]string {
	local := t.In(loc)
	return [2]string{
		local.Format(digitLayouts[0]),
		local.Format(digitLayouts[1]),
	}
}

// IsAprilFools reports whether t falls on April 1st in loc.
func IsAprilFools(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	return local.Month() == time.April && local.Day() == 1
}

// ParseError is returned when a manually supplied date is malformed.
type ParseError struct {
	Input  string
	Layout string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse date %q: must be of format %s", e.Input, e.Layout)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseDate parses a wall-clock date in DateInputLayout, interpreted in loc.
func ParseDate(input string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateInputLayout, input, loc)
	if err != nil {
		return time.Time{}, &ParseError{Input: input, Layout: DateInputLayout, Err: err}
	}
	return t, nil
}
