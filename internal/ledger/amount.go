package ledger

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value. The zero value is 0.
type Amount = decimal.Decimal

// ErrInvalidAmount is returned by ParseAmount for input that is not an acceptable amount.
var ErrInvalidAmount = errors.New("ledger: invalid amount")

// The web client reads amounts as JSON numbers, not strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

var plainNumber = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)$`)

// ParseAmount parses user input such as "25.50", "$1,200" or "-40 €".
// A single currency symbol may lead or trail the number, spaces and ',' are treated as
// group separators. Zero and negative values are rejected unless allowNonPositive is set.
func ParseAmount(input string, allowNonPositive bool) (Amount, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign, s = s[:1], strings.TrimSpace(s[1:])
	}
	s = trimCurrency(s)

	var b strings.Builder
	for _, r := range s {
		if r == ',' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := sign + b.String()
	if !plainNumber.MatchString(cleaned) {
		return decimal.Zero, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !allowNonPositive && !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

func trimCurrency(s string) string {
	runes := []rune(s)
	if len(runes) > 0 && unicode.Is(unicode.Sc, runes[0]) {
		runes = runes[1:]
	} else if n := len(runes); n > 0 && unicode.Is(unicode.Sc, runes[n-1]) {
		runes = runes[:n-1]
	}
	return strings.TrimSpace(string(runes))
}
