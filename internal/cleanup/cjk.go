package cleanup

import "unicode"

// isCJK reports whether a rune belongs to the CJK text classes the spacing
// invariant covers: Han, kana, Hangul, CJK punctuation, and fullwidth
// punctuation. Fullwidth alphanumerics are excluded so spacing around them
// behaves like their narrow counterparts.
func isCJK(r rune) bool {
	if unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r) {
		return true
	}
	switch {
	case r >= 0x3001 && r <= 0x303F: // CJK symbols and punctuation (minus ideographic space)
		return true
	case r >= 0xFF01 && r <= 0xFF60: // fullwidth forms
		return !isFullwidthAlnum(r)
	case r >= 0xFE30 && r <= 0xFE4F: // CJK compatibility forms
		return true
	case r == '…' || r == '—':
		return true
	case r >= 0x2018 && r <= 0x201D: // curly quotes as used in CJK typography
		return true
	}
	return false
}

func isFullwidthAlnum(r rune) bool {
	switch {
	case r >= 0xFF10 && r <= 0xFF19: // ０-９
		return true
	case r >= 0xFF21 && r <= 0xFF3A: // Ａ-Ｚ
		return true
	case r >= 0xFF41 && r <= 0xFF5A: // ａ-ｚ
		return true
	}
	return false
}

func isInlineSpace(r rune) bool {
	return unicode.IsSpace(r)
}
