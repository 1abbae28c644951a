package fill

import (
	"fmt"
	"strings"
)

type era struct {
	name             string
	year, month, day int
}

// eras is ordered newest first.
var eras = []era{
	{"令和", 2019, 5, 1},
	{"平成", 1989, 1, 8},
	{"昭和", 1926, 12, 25},
	{"大正", 1912, 7, 30},
	{"明治", 1868, 1, 25},
}

// Wareki returns the Japanese era year of the given date, such as "令和7年".
// The first year of an era is written 元年. Dates before 明治 fall back to
// "西暦N年".
func Wareki(year, month, day int) string {
	for _, e := range eras {
		if dateOnOrAfter(year, month, day, e.year, e.month, e.day) {
			n := year - e.year + 1
			if n == 1 {
				return e.name + "元年"
			}
			return fmt.Sprintf("%s%d年", e.name, n)
		}
	}
	return fmt.Sprintf("西暦%d年", year)
}

// FiscalYearWareki returns the era name of a school year starting April 1,
// such as "令和7年度".
func FiscalYearWareki(fiscalYear int) string {
	return strings.Replace(Wareki(fiscalYear, 4, 1), "年", "年度", 1)
}

func dateOnOrAfter(y, m, d, y0, m0, d0 int) bool {
	if y != y0 {
		return y > y0
	}
	if m != m0 {
		return m > m0
	}
	return d >= d0
}
