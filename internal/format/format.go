package format

import (
	"fmt"
	"strings"
	"time"
)

// Currency formats an amount in minor units for the currencies the catalog
// carries. Example: Currency(12345, "JPY") => "¥12,345".
func Currency(minor int64, currency string) string {
	switch strings.ToUpper(currency) {
	case "JPY":
		return "¥" + thousandSep(minor)
	case "USD":
		neg := minor < 0
		if neg {
			minor = -minor
		}
		out := "$" + thousandSep(minor/100) + fmt.Sprintf(".%02d", minor%100)
		if neg {
			return "-" + out
		}
		return out
	default:
		return strings.ToUpper(currency) + " " + thousandSep(minor)
	}
}

func thousandSep(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	if neg {
		return "-" + out.String()
	}
	return out.String()
}

// Date formats a timestamp in a short display form.
func Date(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
