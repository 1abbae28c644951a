package fill

// NeedsFallbackFont reports whether s contains an ideographic variation
// selector (U+E0100 to U+E01EF) or a rune at U+20000 or above. Common
// system fonts cover neither.
func NeedsFallbackFont(s string) bool {
	for _, r := range s {
		if (r >= 0xE0100 && r <= 0xE01EF) || r >= 0x20000 {
			return true
		}
	}
	return false
}
