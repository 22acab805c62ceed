package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Date is a calendar date without time or timezone component.
// It is always built from its components, never by a timezone-aware parser,
// so "2026-02-17" stays the 17th regardless of the server location.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate parses a date in YYYY-MM-DD form by splitting it into integer components
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if d.Month < 1 || d.Month > 12 {
		return Date{}, fmt.Errorf("invalid date %q, month out of range", s)
	}
	if d.Day < 1 || d.Day > daysIn(d.Year, d.Month) {
		return Date{}, fmt.Errorf("invalid date %q, day out of range", s)
	}
	return d, nil
}

// DateOf returns the calendar date of t in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// Compare returns -1 if d is before o, 1 if after and 0 for the same day
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(d.Month, o.Month)
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d == Date{}
}

// String returns the date in YYYY-MM-DD form
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalJSON encodes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the date from "YYYY-MM-DD", empty string leaves it zero
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func daysIn(year, month int) int {
	switch month {
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	}
	return 31
}

type dateLayout int

const (
	layoutISO dateLayout = iota
	layoutDaySlash
	layoutDayDot
	layoutMonthSlash
)

// localeLayouts lists supported locales, the first entry is the fallback for unmatched tags
var localeLayouts = []struct {
	tag    language.Tag
	layout dateLayout
}{
	{language.Und, layoutISO},
	{language.BrazilianPortuguese, layoutDaySlash},
	{language.EuropeanPortuguese, layoutDaySlash},
	{language.AmericanEnglish, layoutMonthSlash},
	{language.BritishEnglish, layoutDaySlash},
	{language.Spanish, layoutDaySlash},
	{language.French, layoutDaySlash},
	{language.Italian, layoutDaySlash},
	{language.German, layoutDayDot},
}

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(localeLayouts))
	for i, l := range localeLayouts {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// DateFormatter renders calendar dates for a locale
type DateFormatter struct {
	layout dateLayout
}

// NewDateFormatter makes a formatter for a BCP 47 locale tag like "pt-BR".
// Empty or unknown locales fall back to YYYY-MM-DD.
func NewDateFormatter(locale string) DateFormatter {
	if strings.TrimSpace(locale) == "" {
		return DateFormatter{layout: layoutISO}
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return DateFormatter{layout: layoutISO}
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return DateFormatter{layout: layoutISO}
	}
	return DateFormatter{layout: localeLayouts[idx].layout}
}

// Format renders the date in the formatter's locale
func (f DateFormatter) Format(d Date) string {
	switch f.layout {
	case layoutDaySlash:
		return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
	case layoutDayDot:
		return fmt.Sprintf("%02d.%02d.%04d", d.Day, d.Month, d.Year)
	case layoutMonthSlash:
		return fmt.Sprintf("%02d/%02d/%04d", d.Month, d.Day, d.Year)
	default:
		return d.String()
	}
}
