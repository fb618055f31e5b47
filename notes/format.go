package notes

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// bulletThreshold is the cleaned-text length above which a summary gets
// reflowed into bullet points.
const bulletThreshold = 50

// minFragmentLen: sentence fragments at or below this length are noise
// (stray abbreviations, leftover punctuation) and are dropped.
const minFragmentLen = 3

// stripRanges is a best-effort emoji/pictograph denylist, not a full
// Unicode-category filter. Multi-code-point sequences (skin tones, flags)
// may survive partially.
var stripRanges = [][2]rune{
	{0x2011, 0x26FF},
	{0x2700, 0x27BF},
	{0xE000, 0xF8FF},
	{0x1F000, 0x1F3FF},
	{0x1F400, 0x1F7FF},
	{0x1F910, 0x1F9FF},
}

func isStrippedRune(r rune) bool {
	for _, rng := range stripRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// Format cleans raw analysis output for display and storage: strips emoji,
// collapses whitespace runs, and reflows long prose into bullet lines.
// Total function, never fails.
func Format(raw string) string {
	if raw == "" {
		return ""
	}

	clean := stripEmojis(raw)
	clean = collapseWhitespace(clean)

	if utf8.RuneCountInString(clean) > bulletThreshold {
		fragments := splitSentences(clean)
		if len(fragments) > 1 {
			lines := make([]string, 0, len(fragments))
			for _, f := range fragments {
				lines = append(lines, "• "+f)
			}
			return strings.Join(lines, "\n")
		}
	}

	return clean
}

func stripEmojis(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isStrippedRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collapseWhitespace squashes runs of two or more whitespace characters to a
// single space and trims the ends. A lone newline survives, so pre-formatted
// bullet lists keep their line breaks.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var run []rune
	flush := func() {
		if len(run) == 1 {
			b.WriteRune(run[0])
		} else if len(run) > 1 {
			b.WriteByte(' ')
		}
		run = run[:0]
	}

	for _, r := range s {
		if unicode.IsSpace(r) {
			run = append(run, r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()

	return strings.TrimSpace(b.String())
}

// splitSentences breaks text on runs of periods and newlines and keeps
// fragments long enough to be real content.
func splitSentences(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '\n'
	})

	fragments := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if utf8.RuneCountInString(trimmed) > minFragmentLen {
			fragments = append(fragments, trimmed)
		}
	}
	return fragments
}

// SanitizeForExport reduces text to a 7-bit-safe subset for the PDF
// renderer. Narrower than Format: everything non-ASCII goes, and markdown
// asterisks become dashes.
func SanitizeForExport(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '*':
			b.WriteByte('-')
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		}
	}
	return b.String()
}
