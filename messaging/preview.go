package messaging

import "unicode/utf8"

const (
	// PreviewLimit is the number of characters kept in a notification body
	PreviewLimit = 100
	// Ellipsis marks a truncated preview
	Ellipsis = "…"
)

// Preview shortens text for a notification body. Text longer than
// PreviewLimit characters keeps its first PreviewLimit characters
// followed by Ellipsis; shorter text is returned unchanged.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLimit {
		return text
	}

	n := 0
	for i := range text {
		if n == PreviewLimit {
			return text[:i] + Ellipsis
		}
		n++
	}
	return text
}
