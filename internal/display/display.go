// Package display derives the presentation values shown next to a deal.
package display

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upperCaser = cases.Upper(language.English)

// Retailer labels a product URL by its first host label with only the first
// letter raised, so "https://www.amazon.com/x" becomes "Amazon" and
// "best-buy.com" becomes "Best-buy".
func Retailer(productURL string) string {
	u, err := url.Parse(strings.TrimSpace(productURL))
	if err != nil || u.Hostname() == "" {
		return "Direct"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return "Direct"
	}
	_, size := utf8.DecodeRuneInString(label)
	return upperCaser.String(label[:size]) + label[size:]
}

// TimeSince buckets the age of a post into "Just now", hours, or days.
func TimeSince(posted, now time.Time) string {
	hours := int(now.Sub(posted) / time.Hour)
	switch {
	case posted.IsZero() || hours <= 0:
		return "Just now"
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	default:
		return fmt.Sprintf("%dd ago", hours/24)
	}
}

type Savings struct {
	Amount     string `json:"amount"`
	Percentage int64  `json:"percentage"`
}

// CalculateSavings returns nil unless the original price exceeds the current one.
func CalculateSavings(price decimal.Decimal, original decimal.NullDecimal) *Savings {
	if !original.Valid || !original.Decimal.GreaterThan(price) {
		return nil
	}
	amount := original.Decimal.Sub(price)
	pct := amount.Div(original.Decimal).Mul(decimal.NewFromInt(100)).Round(0)
	return &Savings{
		Amount:     amount.StringFixed(2),
		Percentage: pct.IntPart(),
	}
}
