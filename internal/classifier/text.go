package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls text normalization before pattern matching.
// Line breaks are always preserved because option labels are line based.
type CleanOptions struct {
	NormalizeForm      string // "NFKC" (default), "NFC", "" to disable
	RemoveControlChars bool
	RemoveZeroWidth    bool
	// ReplaceTypography maps typographic quotes, dashes and odd spaces to ASCII.
	ReplaceTypography bool
}

// DefaultCleanOptions returns the normalization applied by Classify.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeForm:      "NFKC",
		RemoveControlChars: true,
		RemoveZeroWidth:    true,
		ReplaceTypography:  true,
	}
}

// NormalizeText prepares extracted text for matching.
func NormalizeText(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}
	switch strings.ToUpper(opts.NormalizeForm) {
	case "NFKC":
		s = norm.NFKC.String(s)
	case "NFC":
		s = norm.NFC.String(s)
	}
	if opts.ReplaceTypography {
		s = typographyReplacer.Replace(s)
	}
	if !opts.RemoveControlChars && !opts.RemoveZeroWidth {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(r)
		case opts.RemoveZeroWidth && isZeroWidth(r):
		case opts.RemoveControlChars && unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var typographyReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", "\"",
	"”", "\"",
	"–", "-",
	"—", "-",
	"\u00a0", " ",
	"\u2009", " ",
)

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff':
		return true
	}
	return false
}
