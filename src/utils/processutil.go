package utils

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// HasColumn reports whether df has a column called name.
func HasColumn(df dataframe.DataFrame, name string) bool {
	return Contains(df.Names(), name)
}

// MissingColumns returns the names in want that df lacks, in want's order.
func MissingColumns(df dataframe.DataFrame, want []string) []string {
	var missing []string
	names := df.Names()
	for _, w := range want {
		if !Contains(names, w) {
			missing = append(missing, w)
		}
	}
	return missing
}

// FormatFloat writes v in its shortest form: 10, 12.5.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LineNumber is the line data row i occupies in a file with one header row.
// Errors about rows use it so they point at the same line as the raw file.
func LineNumber(i int) int { return i + 2 }

// ParseFloat parses a numeric cell. Blank cells are NaN.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ExcelSerialToTime converts an Excel serial day number (fractional part is
// the time of day) to a UTC time.
func ExcelSerialToTime(serial float64) time.Time {
	days := math.Floor(serial)
	fraction := serial - days
	// round to the second, serial fractions rarely land exactly
	secs := math.Round(86400 * fraction)
	return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
}

// ExcelSerial parses s as an Excel serial number. ok is false for anything
// that is not a plain non-negative number.
func ExcelSerial(s string) (serial float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
