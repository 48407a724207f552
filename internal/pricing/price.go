// Package pricing turns scraped price strings into an amount and a currency code.
package pricing

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	CurrencyTRY = "TRY"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"

	// DefaultCurrency is assumed when a string carries no currency marker.
	DefaultCurrency = CurrencyTRY
)

var (
	amountPattern   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	liraMarkers     = []string{"₺", "TL", "TRY"}
	dollarMarkers   = []string{"$", "USD"}
	euroMarkers     = []string{"€", "EUR"}
	rangeSeparators = []string{"–", "—", "-"}
)

// Parse extracts the amount and currency from raw. It never fails: a string
// without a number yields an invalid amount and the detected (or default)
// currency. Ranges such as "100–150₺" resolve to their lower bound.
func Parse(raw string) (decimal.NullDecimal, string) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	currency, lira := detectCurrency(s)

	for _, sep := range rangeSeparators {
		if idx := strings.Index(s, sep); idx >= 0 {
			s = s[:idx]
		}
	}

	if lira {
		// Turkish format: "1.250,00" -> "1250.00".
		s = stripGroupSeparators(s, '.')
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = stripGroupSeparators(s, ',')
	}

	token := amountPattern.FindString(s)
	if token == "" {
		return decimal.NullDecimal{}, currency
	}

	amount, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.NullDecimal{}, currency
	}
	return decimal.NewNullDecimal(amount), currency
}

// Difference returns a-b when both amounts are present.
func Difference(a, b decimal.NullDecimal) decimal.NullDecimal {
	if !a.Valid || !b.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(a.Decimal.Sub(b.Decimal))
}

func detectCurrency(s string) (string, bool) {
	if containsAny(s, liraMarkers) {
		return CurrencyTRY, true
	}
	if containsAny(s, dollarMarkers) {
		return CurrencyUSD, false
	}
	if containsAny(s, euroMarkers) {
		return CurrencyEUR, false
	}
	return DefaultCurrency, false
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// stripGroupSeparators drops sep where it is followed by exactly three digits,
// i.e. where it groups thousands rather than separating decimals.
func stripGroupSeparators(s string, sep rune) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if r == sep && isGroup(runes[i+1:]) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isGroup(rest []rune) bool {
	if len(rest) < 3 {
		return false
	}
	for _, r := range rest[:3] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(rest) == 3 || !unicode.IsDigit(rest[3])
}
