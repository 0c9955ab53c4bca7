package classifier

import (
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(DefaultRules())
	require.NoError(t, err)
	return c
}

func TestClassifyFixtures(t *testing.T) {
	c := newTestClassifier(t)
	for _, fx := range testutil.QuestionFixtures() {
		t.Run(fx.Name, func(t *testing.T) {
			res := c.Classify(fx.Text, fx.HasImages)
			assert.Equal(t, fx.Type, res.Type.String())
			assert.Equal(t, fx.Options, res.Options)
			if fx.Answer == "" {
				assert.Nil(t, res.CorrectAnswer)
			} else {
				require.NotNil(t, res.CorrectAnswer)
				assert.Equal(t, fx.Answer, *res.CorrectAnswer)
			}
			assert.GreaterOrEqual(t, res.Confidence, 0.0)
			assert.LessOrEqual(t, res.Confidence, 1.0)
		})
	}
}

func TestClassifySelectAllInline(t *testing.T) {
	res := newTestClassifier(t).Classify("Select all that apply: A. Fever B. Cough", false)
	assert.Equal(t, document.SATA, res.Type)
	assert.Equal(t, []string{"Fever", "Cough"}, res.Options)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
	assert.InDelta(t, 0.9, res.Scores[document.MultipleChoice], 1e-9)
}

func TestClassifyAnswerRegardlessOfType(t *testing.T) {
	c := newTestClassifier(t)
	for _, text := range []string{
		"Correct answer: C",
		"The normal value is ____ mmHg. Correct answer: c",
		"Match the column entries. correct answer C",
	} {
		res := c.Classify(text, false)
		require.NotNil(t, res.CorrectAnswer, text)
		assert.Equal(t, "C", *res.CorrectAnswer, text)
	}
	assert.Equal(t, document.Unknown, c.Classify("Correct answer: C", false).Type)
}

func TestClassifyTieGoesToEarlierType(t *testing.T) {
	c := newTestClassifier(t)
	res := c.Classify("Mark the grid ☐", false)
	assert.Equal(t, document.SATA, res.Type)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)

	rules := DefaultRules()
	rules.Types[1], rules.Types[3] = rules.Types[3], rules.Types[1]
	reordered, err := New(rules)
	require.NoError(t, err)
	assert.Equal(t, document.Matrix, reordered.Classify("Mark the grid ☐", false).Type)
}

func TestClassifyVisualBonus(t *testing.T) {
	c := newTestClassifier(t)
	text := "Fill in: the rash shown in the image is ____ in origin."

	without := c.Classify(text, false)
	assert.Equal(t, document.FillBlank, without.Type)
	assert.InDelta(t, 0.9, without.Confidence, 1e-9)
	assert.False(t, without.VisualBonus)

	with := c.Classify(text, true)
	assert.Equal(t, document.FillBlank, with.Type)
	assert.InDelta(t, 1.0, with.Confidence, 1e-9)
	assert.True(t, with.VisualBonus)

}

func TestClassifyVisualBonusWithoutTypeSignals(t *testing.T) {
	c := newTestClassifier(t)
	text := "The lesion shown in the image is on the patient's forearm now."

	plain := c.Classify(text, false)
	assert.Equal(t, document.Unknown, plain.Type)
	assert.InDelta(t, 0.0, plain.Confidence, 1e-9)
	assert.False(t, plain.VisualBonus)

	// Every type receives the bonus, so the first listed type wins the tie.
	with := c.Classify(text, true)
	assert.Equal(t, document.MultipleChoice, with.Type)
	assert.InDelta(t, 0.3, with.Confidence, 1e-9)
	assert.True(t, with.VisualBonus)
	for _, qt := range document.CandidateTypes {
		assert.InDelta(t, 0.3, with.Scores[qt], 1e-9, qt.String())
	}
	assert.Empty(t, with.Options)

	noBonus := DefaultRules()
	noBonus.VisualBonus = 0
	assert.Equal(t, document.Unknown, MustNew(noBonus).Classify(text, true).Type)
}

func TestClassifyOptionsFirstFormatWins(t *testing.T) {
	c := newTestClassifier(t)
	res := c.Classify("Which of the following?\nA. Alpha\n(B) Beta\nC. Gamma", false)
	assert.Equal(t, document.MultipleChoice, res.Type)
	assert.Equal(t, []string{"Alpha", "Gamma"}, res.Options)

	res = c.Classify("Which of the following drugs?\n(A) Alpha (B) Beta", false)
	assert.Equal(t, []string{"Alpha", "Beta"}, res.Options)

	// Options are not extracted for other types.
	res = c.Classify("Complete: the value is ____ (in mmHg). A. Ten", false)
	assert.Equal(t, document.FillBlank, res.Type)
	assert.Nil(t, res.Options)
}

func TestSplitLabeledIgnoresGluedLabels(t *testing.T) {
	c := newTestClassifier(t)
	assert.Equal(t, []string{"Tylenol BCD. Advil"}, splitLabeled("A. Tylenol BCD. Advil", c.optionLabels[0]))
	assert.Equal(t, []string{"One", "Two"}, splitLabeled("A. One   B. Two  ", c.optionLabels[0]))
	assert.Nil(t, splitLabeled("no labels here", c.optionLabels[0]))
}

func TestClassifyRationale(t *testing.T) {
	c := newTestClassifier(t)
	res := c.Classify("Answer: B\nRationale:\n  Beta blockers slow the\nheart rate. Other text.", false)
	require.NotNil(t, res.Rationale)
	assert.Equal(t, "Beta blockers slow the\nheart rate.", *res.Rationale)
	require.NotNil(t, res.CorrectAnswer)
	assert.Equal(t, "B", *res.CorrectAnswer)

	res = c.Classify("This is wrong because the dose is too high. More.", false)
	require.NotNil(t, res.Rationale)
	assert.Equal(t, "the dose is too high.", *res.Rationale)

	assert.Nil(t, c.Classify("No explanation given", false).Rationale)
}

func TestExtractSubject(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		name string
		text string
		want string
	}{
		{"upper keyword", "SUBJECT: Cardiology Basics\nQuestion text", "Cardiology Basics"},
		{"mixed case keyword", "Subject - Renal (Acute)!\nMore", "- Renal Acute"},
		{"all caps heading", "Intro\nWOUND CARE: stage the ulcer", "WOUND CARE"},
		{"too short", "Subject: Eye\nNEURO: x", ""},
		{"none", "plain prose without a heading", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ExtractSubject(tt.text)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNewQuestionBlock(t *testing.T) {
	c := newTestClassifier(t)
	q := c.NewQuestionBlock(document.TopicID(3), 12, "SUBJECT: Dermatology\nSelect all that apply: A. Itch B. Scale", false)
	assert.Equal(t, "topic_0003", q.TopicID)
	assert.Equal(t, 12, q.Page)
	assert.Equal(t, document.SATA, q.Type)
	assert.Equal(t, []string{"Itch", "Scale"}, q.Options)
	require.NotNil(t, q.Subject)
	assert.Equal(t, "Dermatology", *q.Subject)
	assert.NotNil(t, q.Images)
	assert.Empty(t, q.Images)
}

func TestNewRejectsBadRules(t *testing.T) {
	rules := DefaultRules()
	rules.Types[0].Patterns = append(rules.Types[0].Patterns, WeightedPattern{Pattern: "(", Weight: 1})
	_, err := New(rules)
	require.Error(t, err)

	rules = DefaultRules()
	rules.Types[0].Type = "essay"
	_, err = New(rules)
	require.Error(t, err)

	rules = DefaultRules()
	rules.AnswerPatterns = []string{"answer"}
	_, err = New(rules)
	require.Error(t, err)

	rules = DefaultRules()
	rules.Types = append(rules.Types, rules.Types[0])
	_, err = New(rules)
	require.Error(t, err)

	assert.Panics(t, func() { MustNew(Rules{}) })
}

func TestLoadRulesMirrorsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, WriteRules(path, DefaultRules()))

	loaded, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), loaded)
}

func TestLoadRulesOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, writeFile(path, "visual_bonus: 0.5\nsubject_min_length: 3\n"))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rules.VisualBonus, 1e-9)
	assert.Equal(t, 3, rules.SubjectMinLength)
	assert.Equal(t, DefaultRules().Types, rules.Types)

	c, err := New(rules)
	require.NoError(t, err)
	got := c.ExtractSubject("Subject: Eyes\n")
	require.NotNil(t, got)
	assert.Nil(t, newTestClassifier(t).ExtractSubject("Subject: Eyes\n"))

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.NoError(t, writeFile(path, "types: [unclosed"))
	_, err = LoadRules(path)
	require.Error(t, err)
}
