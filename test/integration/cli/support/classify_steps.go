package support

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

func (testCtx *TestContext) theQuestionText(text *godog.DocString) error {
	testCtx.QuestionText = text.Content
	return nil
}

func (testCtx *TestContext) iClassifyIt(withImages string) error {
	hasImages := withImages != ""
	testCtx.Classification = testCtx.Classifier.Classify(testCtx.QuestionText, hasImages)
	testCtx.Subject = testCtx.Classifier.ExtractSubject(testCtx.QuestionText)
	return nil
}

func (testCtx *TestContext) theQuestionTypeShouldBe(expected string) error {
	if got := testCtx.Classification.Type.String(); got != expected {
		return fmt.Errorf("expected question type %q, got %q (scores %v)",
			expected, got, testCtx.Classification.Scores)
	}
	return nil
}

func (testCtx *TestContext) theOptionsShouldBe(list string) error {
	expected := splitList(list)
	got := testCtx.Classification.Options
	if strings.Join(got, "|") != strings.Join(expected, "|") {
		return fmt.Errorf("expected options %q, got %q", expected, got)
	}
	return nil
}

func (testCtx *TestContext) thereShouldBeNoOptions() error {
	if n := len(testCtx.Classification.Options); n != 0 {
		return fmt.Errorf("expected no options, got %d: %q", n, testCtx.Classification.Options)
	}
	return nil
}

func (testCtx *TestContext) theCorrectAnswerShouldBe(expected string) error {
	got := testCtx.Classification.CorrectAnswer
	if got == nil {
		return fmt.Errorf("expected correct answer %q, got none", expected)
	}
	if *got != expected {
		return fmt.Errorf("expected correct answer %q, got %q", expected, *got)
	}
	return nil
}

func (testCtx *TestContext) theSubjectShouldBe(expected string) error {
	if testCtx.Subject == nil {
		return fmt.Errorf("expected subject %q, got none", expected)
	}
	if *testCtx.Subject != expected {
		return fmt.Errorf("expected subject %q, got %q", expected, *testCtx.Subject)
	}
	return nil
}

func (testCtx *TestContext) theVisualBonusShouldBeApplied(not string) error {
	want := not == ""
	if testCtx.Classification.VisualBonus != want {
		return fmt.Errorf("expected visual bonus %v, got %v", want, testCtx.Classification.VisualBonus)
	}
	return nil
}

func (testCtx *TestContext) theConfidenceShouldBeAtMost(limit float64) error {
	if c := testCtx.Classification.Confidence; c > limit {
		return fmt.Errorf("expected confidence <= %.2f, got %.2f", limit, c)
	}
	return nil
}

func splitList(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RegisterClassifySteps registers the classifier steps.
func (testCtx *TestContext) RegisterClassifySteps(sc *godog.ScenarioContext) {
	sc.Step(`^the question text:$`, testCtx.theQuestionText)
	sc.Step(`^I classify it( with images)?$`, testCtx.iClassifyIt)
	sc.Step(`^the question type should be "([^"]*)"$`, testCtx.theQuestionTypeShouldBe)
	sc.Step(`^the options should be "([^"]*)"$`, testCtx.theOptionsShouldBe)
	sc.Step(`^there should be no options$`, testCtx.thereShouldBeNoOptions)
	sc.Step(`^the correct answer should be "([^"]*)"$`, testCtx.theCorrectAnswerShouldBe)
	sc.Step(`^the subject should be "([^"]*)"$`, testCtx.theSubjectShouldBe)
	sc.Step(`^the visual bonus should( not)? be applied$`, testCtx.theVisualBonusShouldBeApplied)
	sc.Step(`^the confidence should be at most (\d+(?:\.\d+)?)$`, testCtx.theConfidenceShouldBeAtMost)
}
