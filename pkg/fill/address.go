package fill

import (
	"strings"

	"github.com/matzehuels/meibo/pkg/layout"
)

// Record keys of the guardian address parts.
const (
	KeyGuardianPrefecture = "保護者都道府県"
	KeyGuardianCity       = "保護者市区町村"
	KeyGuardianStreet     = "保護者町番地"
	KeyGuardianBuilding   = "保護者建物名"
)

// SameAddress is printed when the guardian lives at the student's address.
const SameAddress = "同上"

var (
	addressKeys         = []string{layout.NamePrefecture, layout.NameCity, layout.NameStreet, layout.NameBuilding}
	guardianAddressKeys = []string{KeyGuardianPrefecture, KeyGuardianCity, KeyGuardianStreet, KeyGuardianBuilding}
)

func joinParts(rec Record, keys []string) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(rec.String(k))
	}
	return b.String()
}

// Address joins the student address parts, skipping empty ones.
func Address(rec Record) string {
	return joinParts(rec, addressKeys)
}

// GuardianAddress returns the guardian address. A single 保護者住所 value is
// used as is; otherwise the guardian parts are joined and replaced by
// SameAddress when they equal the student address.
func GuardianAddress(rec Record) string {
	if s := rec.String(layout.NameGuardianAddr); s != "" {
		return s
	}
	g := joinParts(rec, guardianAddressKeys)
	if g == "" {
		return ""
	}
	if g == Address(rec) {
		return SameAddress
	}
	return g
}
