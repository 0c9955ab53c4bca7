package validation

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleTopics() []*document.QuestionBlock {
	return []*document.QuestionBlock{
		{TopicID: "topic_0001", Type: document.MultipleChoice, Confidence: 0.9, Subject: strPtr("Dermatology"), Images: []string{"img_0001", "img_0002"}},
		{TopicID: "topic_0002", Type: document.SATA, Confidence: 0.3, Subject: strPtr("Cardiology")},
		{TopicID: "topic_0003", Type: document.MultipleChoice, Confidence: 0.6},
		{TopicID: "topic_0004", Type: document.Unknown, Confidence: 0.0, Subject: strPtr(""), Images: []string{"img_0001"}},
	}
}

func TestBuild(t *testing.T) {
	images := []*document.ExtractedImage{{ID: "img_0001"}, {ID: "img_0002"}, {ID: "img_0003"}}
	r := Build(sampleTopics(), images)

	assert.False(t, r.Failed())
	assert.Equal(t, 4, r.TotalTopics)
	assert.Equal(t, 3, r.TotalImages)
	assert.Equal(t, 1, r.ValidTopics, "confidence 0.3 is not above the bar and blank subjects do not count")
	assert.Equal(t, 2, r.TopicsWithImages)
	assert.Equal(t, 3, r.ImageAssociations)
	assert.InDelta(t, 0.25, r.SuccessRate, 1e-9)
	assert.InDelta(t, 0.5, r.ImageCoverage, 1e-9)
	assert.InDelta(t, 0.45, r.AverageConfidence, 1e-9)
	assert.Equal(t, ConfidenceRange{Min: 0, Max: 0.9}, r.ConfidenceRange)
	assert.Equal(t, map[document.QuestionType]int{
		document.MultipleChoice: 2, document.SATA: 1, document.Unknown: 1,
	}, r.QuestionTypeDistribution)

	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "success rate 25.0%")
	assert.Equal(t, VerdictNeedsReview, r.Verdict())
}

func TestBuildEmptyTopics(t *testing.T) {
	r := Build(nil, []*document.ExtractedImage{{ID: "img_0001"}})
	assert.True(t, r.Failed())
	assert.Equal(t, ErrNoTopics, r.Error)
	assert.Equal(t, VerdictNeedsReview, r.Verdict())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"No topics extracted"}`, string(data))
}

func TestBuildDoesNotMutate(t *testing.T) {
	topics := sampleTopics()
	before := *topics[0]
	Build(topics, nil)
	assert.Equal(t, before, *topics[0])
}

func TestVerdictLevels(t *testing.T) {
	cases := []struct {
		name     string
		success  float64
		coverage float64
		want     string
	}{
		{"complete", 0.9, 0.5, VerdictComplete},
		{"text only", 0.9, 0.3, VerdictTextOnly},
		{"boundary success", 0.8, 0.9, VerdictNeedsReview},
		{"poor", 0.1, 0.1, VerdictNeedsReview},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Report{TotalTopics: 1, SuccessRate: tc.success, ImageCoverage: tc.coverage}
			assert.Equal(t, tc.want, r.Verdict())
			assert.NotEmpty(t, r.Summary())
		})
	}
}

func TestBuildAllGoodHasNoWarnings(t *testing.T) {
	topics := []*document.QuestionBlock{
		{TopicID: "topic_0001", Type: document.FillBlank, Confidence: 0.9, Subject: strPtr("Renal Care"), Images: []string{"img_0001"}},
	}
	r := Build(topics, []*document.ExtractedImage{{ID: "img_0001"}})
	assert.Empty(t, r.Warnings)
	assert.Equal(t, VerdictComplete, r.Verdict())
}

func TestReportJSONFieldsAndRoundTrip(t *testing.T) {
	r := Build(sampleTopics(), nil)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"total_topics", "total_images", "valid_topics", "topics_with_images",
		"image_associations", "success_rate", "image_coverage",
		"question_type_distribution", "average_confidence", "confidence_range",
	} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "error")
	assert.Equal(t, map[string]any{"multiple_choice": 2.0, "sata": 1.0, "unknown": 1.0}, raw["question_type_distribution"])

	path := filepath.Join(t.TempDir(), "validation_report.json")
	require.NoError(t, WriteFile(path, r))
	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r, back)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
