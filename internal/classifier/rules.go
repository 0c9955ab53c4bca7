package classifier

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WeightedPattern is one scoring signal for a question type.
type WeightedPattern struct {
	Pattern string  `yaml:"pattern" json:"pattern"`
	Weight  float64 `yaml:"weight" json:"weight"`
}

// TypeRules holds the signals of one candidate question type. Type patterns
// are always matched case-insensitively and in multiline mode.
type TypeRules struct {
	Type     string            `yaml:"type" json:"type"`
	Patterns []WeightedPattern `yaml:"patterns" json:"patterns"`
}

// Rules is the full, immutable pattern table a Classifier is built from.
// Extraction patterns carry their own flags and must have one capture group.
type Rules struct {
	// Types are scored in order; ties go to the earlier entry.
	Types []TypeRules `yaml:"types" json:"types"`

	VisualIndicators []string `yaml:"visual_indicators" json:"visual_indicators"`
	VisualBonus      float64  `yaml:"visual_bonus" json:"visual_bonus"`

	// OptionLabels match an option label such as "A. " or "(A) ". The first
	// label format that yields any option wins.
	OptionLabels []string `yaml:"option_labels" json:"option_labels"`

	AnswerPatterns    []string `yaml:"answer_patterns" json:"answer_patterns"`
	RationalePatterns []string `yaml:"rationale_patterns" json:"rationale_patterns"`
	SubjectPatterns   []string `yaml:"subject_patterns" json:"subject_patterns"`
	// SubjectMinLength: a cleaned subject must be longer than this.
	SubjectMinLength int `yaml:"subject_min_length" json:"subject_min_length"`
}

// DefaultRules returns the stock pattern table.
func DefaultRules() Rules {
	return Rules{
		Types: []TypeRules{
			{Type: "multiple_choice", Patterns: []WeightedPattern{
				{`[A-D]\.\s+[A-Z]`, 0.9},
				{`\([A-D]\)\s+[A-Z]`, 0.8},
				{`which.*following`, 0.3},
				{`choose.*correct`, 0.3},
			}},
			{Type: "sata", Patterns: []WeightedPattern{
				{`select all that apply`, 1.0},
				{`choose all.*correct`, 0.9},
				{`mark all.*appropriate`, 0.8},
				{`☐|□|\[\s*\]`, 0.7},
			}},
			{Type: "fill_blank", Patterns: []WeightedPattern{
				{`_{3,}`, 0.9},
				{`\[.*?\]`, 0.8},
				{`\(.*?\)`, 0.3},
			}},
			{Type: "matrix", Patterns: []WeightedPattern{
				{`match.*column`, 0.9},
				{`drag.*drop`, 0.8},
				{`grid`, 0.7},
				{`table`, 0.3},
			}},
		},
		VisualIndicators: []string{
			`(?i)shown.*image`,
			`(?i)picture.*shows`,
			`(?i)photograph.*demonstrates`,
			`(?i)figure.*illustrates`,
			`(?i)see.*image`,
			`(?i)observe.*condition`,
			`(?i)visual.*examination`,
		},
		VisualBonus:  0.3,
		OptionLabels: []string{`[A-F]\.\s+`, `\([A-F]\)\s+`},
		AnswerPatterns: []string{
			`(?i)correct answer:?\s*([A-F])`,
			`(?i)answer:?\s*([A-F])`,
			`(?i)the answer is\s*([A-F])`,
		},
		RationalePatterns: []string{
			`(?is)rationale:?\s*([^.]+\.)`,
			`(?is)explanation:?\s*([^.]+\.)`,
			`(?is)because:?\s*([^.]+\.)`,
		},
		SubjectPatterns: []string{
			`SUBJECT[:\s]+([^\n]+)`,
			`(?i)subject[:\s]+([^\n]+)`,
			`(?m)^([A-Z][A-Z\s]{5,50}):`,
		},
		SubjectMinLength: 5,
	}
}

// LoadRules reads a YAML rule table. Sections missing from the file keep
// their default values.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: rules path is operator supplied
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read classifier rules: %w", err)
	}
	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse classifier rules %s: %w", path, err)
	}
	return rules, nil
}

// WriteRules writes rules as YAML, e.g. to seed a custom table.
func WriteRules(path string, rules Rules) error {
	data, err := yaml.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to marshal classifier rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write classifier rules: %w", err)
	}
	return nil
}

// Validate checks the table shape without compiling patterns.
func (r Rules) Validate() error {
	if len(r.Types) == 0 {
		return errors.New("no question types configured")
	}
	seen := make(map[string]bool, len(r.Types))
	for _, t := range r.Types {
		if t.Type == "" {
			return errors.New("question type without a name")
		}
		if seen[t.Type] {
			return fmt.Errorf("question type %q configured twice", t.Type)
		}
		seen[t.Type] = true
		for _, p := range t.Patterns {
			if p.Weight < 0 {
				return fmt.Errorf("type %s: negative weight for %q", t.Type, p.Pattern)
			}
		}
	}
	if r.VisualBonus < 0 {
		return fmt.Errorf("visual bonus must be >= 0, got %.2f", r.VisualBonus)
	}
	if r.SubjectMinLength < 0 {
		return fmt.Errorf("subject min length must be >= 0, got %d", r.SubjectMinLength)
	}
	return nil
}
