package equivalency

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// English locale for consistent thousand separators.
var printer = message.NewPrinter(language.English)

const (
	millionThreshold = 1_000_000
	billionThreshold = 1_000_000_000
)

// FormatNumber formats n with thousand separators, e.g. 18248 → "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats f rounded to precision digits with thousand
// separators, e.g. FormatFloat(1234.567, 2) → "1,234.57".
func FormatFloat(f float64, precision int) string {
	if precision <= 0 {
		return FormatNumber(int64(math.Round(f)))
	}
	s := strconv.FormatFloat(f, 'f', precision, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	grouped := FormatNumber(n)
	if n == 0 && strings.HasPrefix(intPart, "-") {
		grouped = "-" + grouped
	}
	return grouped + "." + frac
}

// FormatLarge abbreviates values of a million or more, e.g. "~1.5 million".
func FormatLarge(n float64) string {
	switch {
	case n >= billionThreshold:
		return fmt.Sprintf("~%.1f billion", n/billionThreshold)
	case n >= millionThreshold:
		return fmt.Sprintf("~%.1f million", n/millionThreshold)
	}
	return FormatNumber(int64(math.Round(n)))
}

// FormatKg renders an emissions amount for display, switching to metric
// tons at 1,000 kg.
func FormatKg(kg float64) string {
	if math.Abs(kg) >= 1000 {
		return FormatFloat(kg/1000, 2) + " t CO2e"
	}
	return FormatFloat(kg, 1) + " kg CO2e"
}

// Tons converts kg to metric tons rounded to two decimals.
func Tons(kg float64) float64 {
	return math.Round(kg/1000*100) / 100
}

func formatValue(v float64) string {
	if v >= millionThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
