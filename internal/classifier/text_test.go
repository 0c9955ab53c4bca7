package classifier

import (
	"os"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/stretchr/testify/assert"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestNormalizeText(t *testing.T) {
	opts := DefaultCleanOptions()
	assert.Equal(t, "A. Fever", NormalizeText("Ａ． Ｆｅｖｅｒ", opts))
	assert.Equal(t, "line one\nline two", NormalizeText("line\u200b one\nline two\x07", opts))
	assert.Equal(t, "\"quoted\" - 'x'", NormalizeText("“quoted” — ‘x’", opts))
	assert.Equal(t, "", NormalizeText("", opts))

	raw := CleanOptions{}
	assert.Equal(t, "Ａ\u200b", NormalizeText("Ａ\u200b", raw))
}

func TestNormalizeTextStripsZeroWidthRunes(t *testing.T) {
	for _, r := range []rune{'\u200b', '\u200c', '\u200d', '\ufeff'} {
		assert.True(t, isZeroWidth(r), "%U", r)
	}
	assert.False(t, isZeroWidth(' '))

	got := NormalizeText("\ufeffSelect\u200c all\u200d that apply", DefaultCleanOptions())
	assert.Equal(t, "Select all that apply", got)
}

func TestClassifyFullWidthText(t *testing.T) {
	c := newTestClassifier(t)
	res := c.Classify("Ｓｅｌｅｃｔ all that apply: Ａ. Fever Ｂ. Cough", false)
	assert.Equal(t, document.SATA, res.Type)
	assert.Equal(t, []string{"Fever", "Cough"}, res.Options)
}
