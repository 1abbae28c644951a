package fill

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/matzehuels/meibo/pkg/layout"
)

// DateFields are the logical fields rendered as YY/MM/DD.
var DateFields = map[string]bool{
	layout.NameBirthDate:      true,
	layout.NameEnrollmentDate: true,
	layout.NameTransferIn:     true,
	layout.NameTransferOut:    true,
}

var isoDate = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// FormatDate renders s as YY/MM/DD. It accepts yyyy-mm-dd and yyyy/m/d,
// optionally followed by a time, and spreadsheet serial numbers. Anything
// else is returned unchanged.
func FormatDate(s string) string {
	if m := isoDate.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%02d/%02d/%02d", y%100, mo, d)
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 1 && serial < 100000 {
		return excelEpoch.AddDate(0, 0, int(serial)).Format("06/01/02")
	}
	return s
}
