package notes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatShortStringsPassThrough(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Cats are mammals", "Cats are mammals"},
		{"trimmed", "  hello world  ", "hello world"},
		{"collapsed spaces", "hello    world", "hello world"},
		{"exactly at threshold keeps structure", "12345678. 12345678. 12345678. 12345678. 123456789.", "12345678. 12345678. 12345678. 12345678. 123456789."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "•")
		})
	}
}

func TestFormatStripsEmojis(t *testing.T) {
	assert.Equal(t, "Study hard", Format("Study hard 🎉"))
	assert.Equal(t, "Done", Format("✅ Done"))
	// Bullets count as pictographs and are stripped before reflow.
	assert.Equal(t, "Point", Format("• Point"))
}

func TestFormatBulletsLongProse(t *testing.T) {
	raw := "Cats are mammals. Dogs are mammals too. Birds are not."
	got := Format(raw)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "• "), "line %q should start with a bullet", line)
	}
	assert.Equal(t, "• Cats are mammals", lines[0])
	assert.Equal(t, "• Dogs are mammals too", lines[1])
	assert.Equal(t, "• Birds are not", lines[2])
}

func TestFormatDropsTinyFragments(t *testing.T) {
	raw := "This is the first real sentence of the summary. ok. And here is the second real sentence."
	got := Format(raw)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, got, "• ok")
}

func TestFormatSingleLongSentenceStaysFlat(t *testing.T) {
	raw := "This single sentence runs well past the fifty character threshold without any period"
	got := Format(raw)

	assert.NotContains(t, got, "•")
	assert.Equal(t, raw, got)
}

func TestFormatRebulletsPreformattedSummary(t *testing.T) {
	// The fallback payload ships with bullet markers; they get stripped and
	// re-applied uniformly.
	raw := "This is a clean, structured summary.\n• Core concepts identified.\n• Readability optimized."
	got := Format(raw)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "• "))
		assert.False(t, strings.HasPrefix(line, "• •"))
	}
}

func TestSanitizeForExport(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii untouched", "plain text", "plain text"},
		{"non-ascii dropped", "résumé 🎓 notes", "rsum  notes"},
		{"asterisks become dashes", "*important*", "-important-"},
		{"bullets dropped", "• Point one", " Point one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeForExport(tt.in))
		})
	}
}

func TestSummaryPDFProducesDocument(t *testing.T) {
	pdf, err := SummaryPDF("• First point\n• Second point")
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.True(t, strings.HasPrefix(string(pdf[:5]), "%PDF-"))
}
