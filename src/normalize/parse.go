package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnparseablePrice = errors.New("unparseable price string")
var ErrUnparseableDate = errors.New("unparseable date string")

// ParsePrice parses the localized decimal strings the upstream providers
// emit. It accepts Turkish-style formatting ("6.942,61", "123,45"),
// plain dot-decimal formatting ("7356.1000") and strips any leading
// currency symbols or whitespace ("$5.096,79").
//
// Disambiguation rule for dot-only strings: a single dot followed by
// exactly three digits is a thousands separator ("6.942" => 6942);
// anything else is a decimal point.
func ParsePrice(s string) (decimal.Decimal, error) {
	cleaned := stripNonNumeric(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseablePrice, s)
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		// The later separator is the decimal point.
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case hasDot:
		if strings.Count(cleaned, ".") > 1 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		} else if frac := cleaned[strings.Index(cleaned, ".")+1:]; len(frac) == 3 {
			cleaned = strings.Replace(cleaned, ".", "", 1)
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseablePrice, s)
	}
	return d, nil
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
}

// turkishMonths maps month names to their index after folding: lowercase,
// non-ASCII bytes dropped. The folding makes mojibake-corrupted names
// ("AÄŸustos", "Åubat") resolve to the same entry as the clean ones.
var turkishMonths = map[string]time.Month{
	"ocak":    time.January,
	"ubat":    time.February, // şubat
	"mart":    time.March,
	"nisan":   time.April,
	"mays":    time.May, // mayıs
	"haziran": time.June,
	"temmuz":  time.July,
	"austos":  time.August, // ağustos
	"eyll":    time.September,
	"ekim":    time.October,
	"kasm":    time.November, // kasım
	"aralk":   time.December,
}

// ParseFlexibleDate parses the date encodings seen across archive
// providers: ISO-like, dot-separated day-first, slash-separated day-first
// and localized "5 Ocak 2024" style with tolerance for corrupted
// non-ASCII bytes in the month name.
func ParseFlexibleDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 3 {
		day, dayErr := strconv.Atoi(fields[0])
		year, yearErr := strconv.Atoi(fields[2])
		month, ok := turkishMonths[foldMonthName(fields[1])]
		if dayErr == nil && yearErr == nil && ok && day >= 1 && day <= 31 {
			return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
}

func foldMonthName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
