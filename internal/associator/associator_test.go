package associator

import (
	"testing"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func topic(n, page int, text string) *document.QuestionBlock {
	return &document.QuestionBlock{TopicID: document.TopicID(n), Page: page, Content: text}
}

func image(n, page int) *document.ExtractedImage {
	return &document.ExtractedImage{ID: document.ImageID(n), Page: page}
}

func TestAssociatePageDistanceRule(t *testing.T) {
	topics := []*document.QuestionBlock{
		topic(1, 5, "Which drug is first line for hypertension?"),
		topic(2, 5, "The rash on the forearm is most likely caused by"),
	}
	images := []*document.ExtractedImage{image(1, 5), image(2, 6), image(3, 7), image(4, 4)}

	st := Associate(topics, images)

	assert.Equal(t, []string{"img_0001"}, topics[0].Images)
	assert.Equal(t, []string{"img_0001", "img_0002", "img_0004"}, topics[1].Images)
	assert.Nil(t, images[2].AssociatedTopicID)
	assert.Empty(t, images[2].AssociatedTopicIDs)
	assert.Equal(t, Stats{Links: 4, TopicsWithImages: 2, ImagesLinked: 3, AdjacentLinks: 2}, st)
	require.NoError(t, CheckConsistency(topics, images))
}

func TestAssociateLastTopicWinsScalar(t *testing.T) {
	topics := []*document.QuestionBlock{
		topic(1, 3, "Observe the figure below."),
		topic(2, 3, "Select all that apply."),
	}
	images := []*document.ExtractedImage{image(1, 3)}

	Associate(topics, images)

	require.NotNil(t, images[0].AssociatedTopicID)
	assert.Equal(t, "topic_0002", *images[0].AssociatedTopicID)
	assert.Equal(t, []string{"topic_0001", "topic_0002"}, images[0].AssociatedTopicIDs)
	assert.Equal(t, []string{"img_0001"}, topics[0].Images)
	assert.Equal(t, []string{"img_0001"}, topics[1].Images)
}

func TestAssociateReplacesPreviousLinks(t *testing.T) {
	topics := []*document.QuestionBlock{topic(1, 2, "The wound appears infected")}
	images := []*document.ExtractedImage{image(1, 3)}
	Associate(topics, images)
	require.Equal(t, []string{"img_0001"}, topics[0].Images)

	topics[0].Content = "Calculate the dose"
	Associate(topics, images)

	assert.Empty(t, topics[0].Images)
	assert.NotNil(t, topics[0].Images)
	assert.Nil(t, images[0].AssociatedTopicID)
	assert.Nil(t, images[0].AssociatedTopicIDs)
}

func TestAssociateNoImages(t *testing.T) {
	topics := []*document.QuestionBlock{topic(1, 1, "see the picture")}
	st := Associate(topics, nil)
	assert.Equal(t, Stats{}, st)
	assert.Equal(t, []string{}, topics[0].Images)
}

func TestMentionsVisualsCaseInsensitiveSubstring(t *testing.T) {
	a, err := New(DefaultConfig())
	require.NoError(t, err)

	assert.True(t, a.MentionsVisuals("LESION on the arm"))
	assert.True(t, a.MentionsVisuals("as seen in practice"))
	assert.True(t, a.MentionsVisuals("Figures 2 and 3"))
	assert.False(t, a.MentionsVisuals("calculate the infusion rate"))
}

func TestCustomKeywords(t *testing.T) {
	a, err := New(Config{Keywords: []string{"  ECG "}})
	require.NoError(t, err)

	topics := []*document.QuestionBlock{
		topic(1, 1, "Interpret the ecg strip"),
		topic(2, 1, "The image shows a rash"),
	}
	images := []*document.ExtractedImage{image(1, 2)}
	a.Associate(topics, images)

	assert.Equal(t, []string{"img_0001"}, topics[0].Images)
	assert.Empty(t, topics[1].Images)
}

func TestConfigValidate(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	_, err = New(Config{Keywords: []string{"image", " "}})
	require.Error(t, err)
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Keywords[0] = "changed"
	assert.Equal(t, "image", DefaultKeywords[0])
}

func TestCheckConsistencyDetectsViolations(t *testing.T) {
	other := "topic_0009"
	topics := []*document.QuestionBlock{
		{TopicID: "topic_0001", Images: []string{"img_0001", "img_0404"}},
	}
	images := []*document.ExtractedImage{
		{ID: "img_0001"},
		{ID: "img_0002", AssociatedTopicID: &other, AssociatedTopicIDs: []string{"topic_0009"}},
	}

	err := CheckConsistency(topics, images)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "unknown image img_0404")
	assert.Contains(t, msg, "image img_0001 does not list topic topic_0001")
	assert.Contains(t, msg, "unknown topic topic_0009")
}

func TestCheckConsistencyScalarMismatch(t *testing.T) {
	first := "topic_0001"
	topics := []*document.QuestionBlock{
		{TopicID: "topic_0001", Images: []string{"img_0001"}},
		{TopicID: "topic_0002", Images: []string{"img_0001"}},
	}
	images := []*document.ExtractedImage{
		{ID: "img_0001", AssociatedTopicID: &first, AssociatedTopicIDs: []string{"topic_0001", "topic_0002"}},
	}
	err := CheckConsistency(topics, images)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not the last linking topic")

	images[0].AssociatedTopicIDs = nil
	err = CheckConsistency(topics, images)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty topic list")
}
