package collector

import (
	"strconv"
	"strings"
)

// formatDollars renders v the way the raw feed does, e.g. "$1,234.56".
func formatDollars(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	out := "$" + groupThousands(intPart) + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func formatThousands(v uint64) string {
	return groupThousands(strconv.FormatUint(v, 10))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// formatPlain renders v without currency decoration.
func formatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
