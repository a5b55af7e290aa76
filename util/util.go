package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

//TimeFormat stores a correctly formatted timestamp
const TimeFormat string = "2006-01-02-T15:04:05-0700"

// Exists returns true if file or directory exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	return true
}

// IsDir returns true if argument is a directory
func IsDir(path string) bool {
	file, err := os.Stat(path)
	if err != nil {
		return false
	}
	if file.IsDir() {
		return true
	}
	return false
}

// UniquePath returns base if nothing exists at that path, otherwise base with the
// smallest counter suffix that does not exist yet (base1, base2, ...)
func UniquePath(base string) string {
	candidate := base
	for counter := 1; Exists(candidate); counter++ {
		candidate = base + strconv.Itoa(counter)
	}
	return candidate
}

// FormatFloat renders a float with the shortest representation that parses
// back to the same value
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

const (
	day  = time.Minute * 60 * 24
	year = 365 * day
)

// FormatDuration properly prints a given time.Duration
// https://gist.github.com/harshavardhana/327e0577c4fed9211f65#gistcomment-2557682
func FormatDuration(d time.Duration) string {
	if d < day {
		return d.String()
	}

	var b strings.Builder

	if d >= year {
		years := d / year
		fmt.Fprintf(&b, "%dy", years)
		d -= years * year
	}

	days := d / day
	d -= days * day
	fmt.Fprintf(&b, "%dd%s", days, d)

	return b.String()
}
