package invoice

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultNumberWidth = 4

// FormatNumber composes an invoice number from series and a zero-padded
// sequence: YW + 7 -> YW-0007
func FormatNumber(series string, seq, width int) string {
	if width <= 0 {
		width = DefaultNumberWidth
	}
	return fmt.Sprintf("%s-%0*d", series, width, seq)
}

// ParseNumber splits SERIES-SEQ and the older SERIES-YEAR-SEQ form
func ParseNumber(number string) (series string, seq int, err error) {
	parts := strings.Split(strings.TrimSpace(number), "-")
	if len(parts) < 2 || parts[0] == "" {
		return "", 0, fmt.Errorf("invoice number %q has no series", number)
	}
	seq, err = strconv.Atoi(parts[len(parts)-1])
	if err != nil || seq < 0 {
		return "", 0, fmt.Errorf("invoice number %q has no sequence", number)
	}
	return parts[0], seq, nil
}

// Filename is the download name of the invoice document
func Filename(number string) string {
	var b strings.Builder
	for _, r := range number {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return fmt.Sprintf("invoice_%s.pdf", b.String())
}
