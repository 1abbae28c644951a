package cli

import (
	"strings"
	"testing"
)

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name                   string
		records, pages, issues int
		cached                 bool
		want                   []string
		absent                 []string
	}{
		{"fresh", 40, 2, 0, false, []string{"40 records", "2 pages", "fresh"}, []string{"issue", "cached"}},
		{"singular", 1, 1, 1, true, []string{"1 record", "1 page", "1 issue", "cached"}, []string{"records", "pages"}},
		{"blank", 0, 1, 0, false, []string{"1 page"}, []string{"record"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureStdout(t)
			printStats(tt.records, tt.pages, tt.issues, tt.cached)
			got := out.String()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("%q missing %q", got, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("%q should not contain %q", got, a)
				}
			}
		})
	}
}

func TestPrintWarningGoesToStdout(t *testing.T) {
	out := captureStdout(t)
	printWarning("field %d: %s", 108, "no value")
	if !strings.Contains(out.String(), "field 108: no value") {
		t.Errorf("output = %q", out.String())
	}
}
