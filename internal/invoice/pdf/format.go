package pdf

import (
	"strings"
	"time"
	"unicode"

	"github.com/biter777/countries"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// conventional symbols; other currencies print their ISO code
var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"PLN": "zł",
}

type numberFormat struct {
	decimal string
	group   string
}

func formatFor(locale Locale) numberFormat {
	if locale == LocaleEN {
		return numberFormat{decimal: ".", group: ","}
	}
	return numberFormat{decimal: ",", group: " "}
}

// fixed renders v with exactly places decimals, half-up, grouped
func (nf numberFormat) fixed(v float64, places int32) string {
	s := decimal.NewFromFloat(v).StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(nf.group)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(nf.decimal)
		b.WriteString(frac)
	}
	if sign != "" && strings.Trim(b.String(), "0"+nf.decimal+nf.group) == "" {
		sign = ""
	}
	return sign + b.String()
}

func formatMoney(v float64, currency string, locale Locale) string {
	currency = strings.ToUpper(currency)
	amount := formatFor(locale).fixed(v, 2)
	symbol, ok := currencySymbols[currency]
	if !ok {
		return amount + " " + currency
	}
	if locale == LocaleEN && currency != "PLN" {
		if strings.HasPrefix(amount, "-") {
			return "-" + symbol + amount[1:]
		}
		return symbol + amount
	}
	return amount + " " + symbol
}

func formatQuantity(v float64, locale Locale) string {
	return formatFor(locale).fixed(v, 2)
}

// formatRate prints a fractional rate as a percentage without trailing zeros
func formatRate(rate float64, locale Locale) string {
	pct := decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(100)).Round(2).String()
	return strings.Replace(pct, ".", formatFor(locale).decimal, 1) + "%"
}

func formatDate(t time.Time, locale Locale) string {
	if t.IsZero() {
		return ""
	}
	if locale == LocaleEN {
		return t.Format("02/01/2006")
	}
	return t.Format("2006-01-02")
}

// countryName expands ISO alpha-2 codes, anything else is printed as stored
func countryName(value string) string {
	value = strings.TrimSpace(value)
	if len(value) != 2 {
		return value
	}
	c := countries.ByName(strings.ToUpper(value))
	if c == countries.Unknown {
		return value
	}
	return c.String()
}

var foldExtra = map[rune]string{
	'ł': "l", 'Ł': "L", 'đ': "d", 'Đ': "D", 'ı': "i",
}

// encodeText converts UTF-8 into the single byte code page of the PDF core
// fonts. Letters outside it lose their diacritics; anything else becomes '?'.
func encodeText(s string) string {
	var fold transform.Transformer
	var b strings.Builder
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		replacement, ok := foldExtra[r]
		if !ok {
			if fold == nil {
				fold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
			}
			replacement, _, _ = transform.String(fold, string(r))
		}
		wrote := false
		for _, fr := range replacement {
			if c, ok := charmap.Windows1252.EncodeRune(fr); ok {
				b.WriteByte(c)
				wrote = true
			}
		}
		if !wrote {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// splitText wraps text to width w in the current font and returns encoded
// lines. fpdf measures runes, so each code page byte is passed as the rune
// of the same value and mapped back afterwards.
func splitText(p *fpdf.Fpdf, s string, w float64) []string {
	enc := encodeText(s)
	wide := make([]rune, len(enc))
	for i := 0; i < len(enc); i++ {
		wide[i] = rune(enc[i])
	}
	var lines []string
	for _, line := range p.SplitText(string(wide), w) {
		b := make([]byte, 0, len(line))
		for _, r := range line {
			b = append(b, byte(r))
		}
		lines = append(lines, string(b))
	}
	return lines
}
