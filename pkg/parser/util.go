package parser

// truncateString はログやエラーメッセージ用に文字列を maxLen バイトで切り詰めるのだ
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	// マルチバイト文字の途中で切らないように後退するのだ
	for maxLen > 0 && !isRuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
