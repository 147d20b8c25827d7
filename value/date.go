package value

import (
	"fmt"

	"github.com/minidb/miniql/rc"
)

// ParseDate parses a "YYYY-MM-DD" string into the int32 YYYYMMDD encoding
// spec.md §4.1 mandates, validating year/month/day ranges and leap years at
// INSERT time as the spec requires.
func ParseDate(s string) (int32, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return 0, rc.New(rc.SCHEMA_FIELD_TYPE_MISMATCH, "invalid date literal %q", s)
	}
	year, err1 := atoiStrict(s[0:4])
	month, err2 := atoiStrict(s[5:7])
	day, err3 := atoiStrict(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, rc.New(rc.SCHEMA_FIELD_TYPE_MISMATCH, "invalid date literal %q", s)
	}
	if !validDate(year, month, day) {
		return 0, rc.New(rc.SCHEMA_FIELD_TYPE_MISMATCH, "invalid date %04d-%02d-%02d", year, month, day)
	}
	return int32(year*10000 + month*100 + day), nil
}

func validDate(year, month, day int) bool {
	if year < 1900 || year > 2100 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 {
		return false
	}
	return day <= daysInMonth(year, month)
}

func daysInMonth(year, month int) int {
	days := [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if month == 2 && isLeap(year) {
		return 29
	}
	return days[month-1]
}

func isLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func atoiStrict(s string) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a digit: %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// DateToString reformats the YYYYMMDD int32 encoding to "YYYY-MM-DD" with
// zero-padded month/day, per spec.md §4.1.
func DateToString(v int32) string {
	year := v / 10000
	month := (v / 100) % 100
	day := v % 100
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
