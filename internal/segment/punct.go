package segment

import "unicode"

// isUntimed reports whether a character in the punctuated transcript has no
// entry in the acoustic model's timestamp array. The punctuation-restoration
// stage injects punctuation after recognition, and the recognizer itself
// never emits whitespace as a timed token.
func isUntimed(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r)
}

// isCJK reports whether a character is a CJK ideograph. Each CJK character
// forms its own word unit; everything else groups into runs.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		(r >= 0x3040 && r <= 0x30FF) || // Hiragana, Katakana
		(r >= 0xF900 && r <= 0xFAFF) || // CJK compatibility ideographs
		(r >= 0xFF66 && r <= 0xFF9F) // halfwidth Katakana
}
