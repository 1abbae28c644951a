package fill

import (
	"strconv"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
)

var (
	kanaNames   = map[string]bool{layout.NameFullNameKana: true, layout.NameLegalNameKana: true}
	kanjiToKana = map[string]string{
		layout.NameFullName:  layout.NameFullNameKana,
		layout.NameLegalName: layout.NameLegalNameKana,
	}
)

// resolve returns the value of a logical field. Pseudo-fields computed from
// the options take precedence over record values.
func (f *filler) resolve(name string) string {
	if v, ok := f.pseudo(name); ok {
		return v
	}

	key := name
	switch f.opts.NameDisplay {
	case NameDisplayKanji:
		if kanaNames[name] {
			return ""
		}
	case NameDisplayKana:
		if kanaNames[name] {
			return ""
		}
		if k, ok := kanjiToKana[name]; ok {
			key = k
		}
	}

	v, ok := f.rec.lookup(key)
	if !ok {
		f.opts.Report.add(errors.ErrCodeData, key, f.opts.RowNumber, "record has no field %q", key)
		return ""
	}
	if DateFields[name] {
		return FormatDate(v)
	}
	return v
}

// pseudo resolves fields that are derived rather than looked up. It
// reports false when the record should be consulted instead.
func (f *filler) pseudo(name string) (string, bool) {
	o := f.opts
	switch name {
	case layout.NameFiscalYear:
		if o.FiscalYear > 0 {
			return strconv.Itoa(o.FiscalYear), true
		}
	case layout.NameFiscalYearEra:
		if o.FiscalYear > 0 {
			return FiscalYearWareki(o.FiscalYear), true
		}
	case layout.NameSchool:
		if o.SchoolName != "" {
			return o.SchoolName, true
		}
	case layout.NameTeacher:
		if o.TeacherName != "" {
			return o.TeacherName, true
		}
	case layout.NameAddress:
		if a := Address(f.rec); a != "" {
			return a, true
		}
	case layout.NameGuardianAddr:
		return GuardianAddress(f.rec), true
	case layout.NamePage:
		if o.Page > 0 {
			return strconv.Itoa(o.Page), true
		}
	case layout.NameTotal:
		if o.Total > 0 {
			return strconv.Itoa(o.Total), true
		}
	case layout.NameRowNumber:
		if v, ok := f.rec.lookup(name); ok && v != "" {
			return v, true
		}
		if o.RowNumber > 0 {
			return strconv.Itoa(o.RowNumber), true
		}
	}
	return "", false
}
