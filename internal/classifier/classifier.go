// Package classifier assigns a question type to a block of extracted text
// using additive weighted patterns and pulls out options, answer, rationale
// and subject.
package classifier

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MeKo-Tech/vistext/internal/document"
)

type compiledPattern struct {
	re     *regexp.Regexp
	weight float64
}

type compiledType struct {
	qtype    document.QuestionType
	patterns []compiledPattern
}

// Classifier is built once from Rules and never mutated; it is safe for
// concurrent use.
type Classifier struct {
	types        []compiledType
	visual       []*regexp.Regexp
	visualBonus  float64
	optionLabels []*regexp.Regexp
	answers      []*regexp.Regexp
	rationales   []*regexp.Regexp
	subjects     []*regexp.Regexp
	subjectMin   int
	clean        CleanOptions
}

// Result is the classification of one text block.
type Result struct {
	Type          document.QuestionType             `json:"question_type"`
	Confidence    float64                           `json:"confidence"`
	Options       []string                          `json:"extracted_options"`
	CorrectAnswer *string                           `json:"correct_answer"`
	Rationale     *string                           `json:"rationale"`
	Scores        map[document.QuestionType]float64 `json:"scores,omitempty"`
	VisualBonus   bool                              `json:"visual_bonus"`
}

var subjectJunk = regexp.MustCompile(`[^\p{L}\p{N}_\s'-]`)

// New compiles rules into a classifier.
func New(rules Rules) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier rules: %w", err)
	}
	c := &Classifier{
		visualBonus: rules.VisualBonus,
		subjectMin:  rules.SubjectMinLength,
		clean:       DefaultCleanOptions(),
	}

	for _, tr := range rules.Types {
		qt, err := document.ParseQuestionType(tr.Type)
		if err != nil || qt == document.Unknown {
			return nil, fmt.Errorf("rules: %q is not a candidate question type", tr.Type)
		}
		ct := compiledType{qtype: qt}
		for _, p := range tr.Patterns {
			re, err := regexp.Compile("(?im)" + p.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rules: type %s pattern %q: %w", tr.Type, p.Pattern, err)
			}
			ct.patterns = append(ct.patterns, compiledPattern{re: re, weight: p.Weight})
		}
		c.types = append(c.types, ct)
	}

	var err error
	if c.visual, err = compileAll("visual indicator", rules.VisualIndicators, 0); err != nil {
		return nil, err
	}
	if c.optionLabels, err = compileAll("option label", rules.OptionLabels, 0); err != nil {
		return nil, err
	}
	if c.answers, err = compileAll("answer", rules.AnswerPatterns, 1); err != nil {
		return nil, err
	}
	if c.rationales, err = compileAll("rationale", rules.RationalePatterns, 1); err != nil {
		return nil, err
	}
	if c.subjects, err = compileAll("subject", rules.SubjectPatterns, 1); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is New for the built-in rules; it panics on invalid rules.
func MustNew(rules Rules) *Classifier {
	c, err := New(rules)
	if err != nil {
		panic(err)
	}
	return c
}

func compileAll(kind string, patterns []string, groups int) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("rules: %s pattern %q: %w", kind, p, err)
		}
		if re.NumSubexp() < groups {
			return nil, fmt.Errorf("rules: %s pattern %q needs a capture group", kind, p)
		}
		out = append(out, re)
	}
	return out, nil
}

// Classify scores text against every candidate type. The highest total wins;
// ties go to the type listed first. When hasImages is set and the text points
// at a picture, every type's total gets the visual-reference bonus, so such
// text classifies as the first type even without other signals.
func (c *Classifier) Classify(text string, hasImages bool) Result {
	text = NormalizeText(text, c.clean)
	bonus := 0.0
	if hasImages && c.mentionsVisual(text) {
		bonus = c.visualBonus
	}

	res := Result{Type: document.Unknown, Scores: make(map[document.QuestionType]float64, len(c.types))}
	for _, ct := range c.types {
		score := bonus
		for _, p := range ct.patterns {
			if p.re.MatchString(text) {
				score += p.weight
			}
		}
		res.Scores[ct.qtype] = score
		if score > res.Confidence {
			res.Confidence = score
			res.Type = ct.qtype
		}
	}
	res.VisualBonus = bonus > 0 && res.Type != document.Unknown
	res.Confidence = min(res.Confidence, 1.0)

	if res.Type == document.MultipleChoice || res.Type == document.SATA {
		res.Options = c.extractOptions(text)
	}
	res.CorrectAnswer = c.extractAnswer(text)
	res.Rationale = c.extractRationale(text)
	return res
}

func (c *Classifier) mentionsVisual(text string) bool {
	for _, re := range c.visual {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// extractOptions returns labeled options using the first label format that
// matches. An option runs from its label to the next label on the same line,
// or to the end of the line.
func (c *Classifier) extractOptions(text string) []string {
	lines := strings.Split(text, "\n")
	for _, label := range c.optionLabels {
		var opts []string
		for _, line := range lines {
			opts = append(opts, splitLabeled(line, label)...)
		}
		if len(opts) > 0 {
			return opts
		}
	}
	return nil
}

func splitLabeled(line string, label *regexp.Regexp) []string {
	var starts [][]int
	for _, m := range label.FindAllStringIndex(line, -1) {
		// A label glued to a preceding word ("CD. ") is not a label.
		if m[0] > 0 {
			r, _ := utf8.DecodeLastRuneInString(line[:m[0]])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				continue
			}
		}
		starts = append(starts, m)
	}
	var out []string
	for i, m := range starts {
		end := len(line)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		if opt := strings.TrimSpace(line[m[1]:end]); opt != "" {
			out = append(out, opt)
		}
	}
	return out
}

func (c *Classifier) extractAnswer(text string) *string {
	if m := firstSubmatch(c.answers, text); m != "" {
		s := strings.ToUpper(m)
		return &s
	}
	return nil
}

func (c *Classifier) extractRationale(text string) *string {
	if m := strings.TrimSpace(firstSubmatch(c.rationales, text)); m != "" {
		return &m
	}
	return nil
}

// ExtractSubject returns the first subject heading longer than the minimum
// length once punctuation is stripped.
func (c *Classifier) ExtractSubject(text string) *string {
	text = NormalizeText(text, c.clean)
	for _, re := range c.subjects {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		subject := subjectJunk.ReplaceAllString(strings.TrimSpace(m[1]), "")
		if utf8.RuneCountInString(subject) > c.subjectMin {
			return &subject
		}
	}
	return nil
}

// NewQuestionBlock classifies text and wraps it as a topic.
func (c *Classifier) NewQuestionBlock(id string, page int, text string, hasImages bool) *document.QuestionBlock {
	res := c.Classify(text, hasImages)
	return &document.QuestionBlock{
		TopicID:       id,
		Page:          page,
		Content:       text,
		Type:          res.Type,
		Options:       res.Options,
		CorrectAnswer: res.CorrectAnswer,
		Rationale:     res.Rationale,
		Subject:       c.ExtractSubject(text),
		Confidence:    res.Confidence,
		Images:        []string{},
	}
}

func firstSubmatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
