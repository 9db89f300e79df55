package aggregate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// The file carries numbers followed by filler (e.g. "60,6     ,0"), so only
// the leading number of a field is read and the rest is ignored.
var (
	leadingInt     = regexp.MustCompile(`^[+-]?\d+`)
	leadingDecimal = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
)

// parseLeadingInt reads the integer at the start of s.
func parseLeadingInt(s string) (int64, bool) {
	m := leadingInt.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(m, "+"), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseAmount reads a comma-decimal amount: the first comma is the decimal
// separator, an exponent is honoured, anything after the leading number is
// filler.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	m := leadingDecimal.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, false
	}
	sign, mantissa, exponent := m[1], m[2], m[3]

	mantissa = strings.TrimSuffix(mantissa, ".")
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	if sign == "-" {
		mantissa = "-" + mantissa
	}
	d, err := decimal.NewFromString(mantissa + exponent)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
