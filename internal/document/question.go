package document

import (
	"encoding/json"
	"fmt"
)

// QuestionType is the semantic category of a text block.
type QuestionType int

// Enumeration order matters: classifier ties resolve to the earlier type.
const (
	MultipleChoice QuestionType = iota
	SATA
	FillBlank
	Matrix
	Unknown
)

// CandidateTypes lists the types the classifier scores, in tie-break order.
var CandidateTypes = []QuestionType{MultipleChoice, SATA, FillBlank, Matrix}

var questionTypeNames = map[QuestionType]string{
	MultipleChoice: "multiple_choice",
	SATA:           "sata",
	FillBlank:      "fill_blank",
	Matrix:         "matrix",
	Unknown:        "unknown",
}

func (t QuestionType) String() string {
	if s, ok := questionTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseQuestionType maps a wire name back to the enum.
func ParseQuestionType(s string) (QuestionType, error) {
	for t, name := range questionTypeNames {
		if name == s {
			return t, nil
		}
	}
	return Unknown, fmt.Errorf("unknown question type %q", s)
}

// MarshalText implements encoding.TextMarshaler so the type works as a JSON
// value and as a map key.
func (t QuestionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *QuestionType) UnmarshalText(b []byte) error {
	v, err := ParseQuestionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// QuestionBlock is one classified unit of exam content (a topic).
// Images is written once by the associator after every image is known.
type QuestionBlock struct {
	TopicID       string       `json:"topic_id"`
	Page          int          `json:"page_number"`
	Content       string       `json:"content"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer *string      `json:"correct_answer"`
	Rationale     *string      `json:"rationale"`
	Subject       *string      `json:"subject"`
	Confidence    float64      `json:"confidence_score"`
	Images        []string     `json:"images"`
}

// HasImages reports whether any image was associated.
func (q *QuestionBlock) HasImages() bool { return len(q.Images) > 0 }

// MarshalJSON keeps empty slices as [] rather than null.
func (q QuestionBlock) MarshalJSON() ([]byte, error) {
	type alias QuestionBlock
	a := alias(q)
	if a.Options == nil {
		a.Options = []string{}
	}
	if a.Images == nil {
		a.Images = []string{}
	}
	return json.Marshal(a)
}
