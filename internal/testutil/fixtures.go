package testutil

import (
	"encoding/base64"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/stretchr/testify/require"
)

// QuestionFixture pairs a text block with its expected classification.
type QuestionFixture struct {
	Name      string   `json:"name"`
	Text      string   `json:"text"`
	HasImages bool     `json:"has_images"`
	Type      string   `json:"expected_type"`
	Options   []string `json:"expected_options,omitempty"`
	Answer    string   `json:"expected_answer,omitempty"`
}

// QuestionFixtures returns hand-written question blocks covering every type.
func QuestionFixtures() []QuestionFixture {
	return []QuestionFixture{
		{
			Name:    "sata_inline",
			Text:    "Select all that apply: A. Fever B. Cough",
			Type:    "sata",
			Options: []string{"Fever", "Cough"},
		},
		{
			Name: "multiple_choice_lines",
			Text: "Which of the following is the first-line treatment?\n" +
				"A. Penicillin\nB. Vancomycin\nC. Doxycycline\nD. Rest\n" +
				"Correct answer: A",
			Type:    "multiple_choice",
			Options: []string{"Penicillin", "Vancomycin", "Doxycycline", "Rest"},
			Answer:  "A",
		},
		{
			Name:    "multiple_choice_parens",
			Text:    "Choose the correct dressing:\n(A) Hydrocolloid\n(B) Gauze\nThe answer is B",
			Type:    "multiple_choice",
			Options: []string{"Hydrocolloid", "Gauze"},
			Answer:  "B",
		},
		{
			Name: "fill_blank",
			Text: "The normal adult heart rate is ____ beats per minute.",
			Type: "fill_blank",
		},
		{
			Name: "matrix",
			Text: "Match each finding in the first column to the condition in the second column.",
			Type: "matrix",
		},
		{
			Name:      "visual_reference",
			Text:      "The wound shown in the image is best described as which of the following? A. Stage I B. Stage II",
			HasImages: true,
			Type:      "multiple_choice",
			Options:   []string{"Stage I", "Stage II"},
		},
		{
			Name: "prose",
			Text: "Chapter four reviews the physiology of wound healing in adults.",
			Type: "unknown",
		},
	}
}

// SaveFixtures writes fixtures as indented JSON.
func SaveFixtures(t *testing.T, path string, fixtures []QuestionFixture) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	data, err := json.MarshalIndent(fixtures, "", "  ")
	require.NoError(t, err, "Failed to marshal fixtures")
	require.NoError(t, os.WriteFile(path, data, 0o600), "Failed to write fixture file: %s", path)
}

// LoadFixtures reads fixtures written by SaveFixtures.
func LoadFixtures(t *testing.T, path string) []QuestionFixture {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // G304: test fixture path
	require.NoError(t, err, "Failed to read fixture file: %s", path)
	var out []QuestionFixture
	require.NoError(t, json.Unmarshal(data, &out), "Failed to unmarshal fixture JSON")
	return out
}

// SampleElements returns partitioned elements of a short three-page chapter:
// a question and a picture on page 5, a question mentioning a rash on page 5,
// a question without visual words on page 7, and a header too short to keep.
func SampleElements() []document.Element {
	png, _ := utils.EncodePNG(CreateTestImage(120, 90, color.RGBA{200, 80, 80, 255}))
	return []document.Element{
		{
			Kind:     document.ElementText,
			Category: "Title",
			Text:     "DERMATOLOGY",
			Page:     5,
		},
		{
			Kind:     document.ElementText,
			Category: "NarrativeText",
			Text: "SUBJECT: Dermatology Assessment\nThe lesion shown in the image is most consistent with which of the following?\n" +
				"A. Psoriasis\nB. Eczema\nC. Melanoma\nD. Tinea\nCorrect answer: C\nRationale: Asymmetry and irregular borders suggest melanoma.",
			Page: 5,
		},
		{
			Kind:        document.ElementImage,
			Category:    "Image",
			Page:        5,
			Coordinates: &document.BBox{X1: 100, Y1: 300, X2: 220, Y2: 390},
			ImageBase64: base64.StdEncoding.EncodeToString(png),
			ImageMIME:   "image/png",
		},
		{
			Kind:     document.ElementText,
			Category: "NarrativeText",
			Text:     "Select all that apply: a patient with a spreading rash should be assessed for A. Fever B. Cough C. Pruritus",
			Page:     5,
		},
		{
			Kind:     document.ElementText,
			Category: "NarrativeText",
			Text:     "The normal adult respiratory rate is ____ breaths per minute. Rationale: twelve to twenty is normal.",
			Page:     7,
		},
	}
}
