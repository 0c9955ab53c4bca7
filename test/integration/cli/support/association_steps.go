package support

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/vistext/internal/associator"
	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/validation"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) aTopicOnPageReading(page int, text string) error {
	id := document.TopicID(len(testCtx.Topics) + 1)
	testCtx.Topics = append(testCtx.Topics, testCtx.Classifier.NewQuestionBlock(id, page, text, false))
	return nil
}

func (testCtx *TestContext) anImageOnPage(page int) error {
	testCtx.Images = append(testCtx.Images, &document.ExtractedImage{
		ID:     document.ImageID(len(testCtx.Images) + 1),
		Page:   page,
		Source: document.SourceDetectedRegion,
	})
	return nil
}

func (testCtx *TestContext) imagesOnPages(list string) error {
	for _, p := range splitList(list) {
		page, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid page %q: %w", p, err)
		}
		if err := testCtx.anImageOnPage(page); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) iAssociateImagesWithTopics() error {
	testCtx.Stats = associator.Associate(testCtx.Topics, testCtx.Images)
	testCtx.Report = validation.Build(testCtx.Topics, testCtx.Images)
	return associator.CheckConsistency(testCtx.Topics, testCtx.Images)
}

func (testCtx *TestContext) iBuildTheValidationReport() error {
	testCtx.Report = validation.Build(testCtx.Topics, testCtx.Images)
	return nil
}

func (testCtx *TestContext) topic(n int) (*document.QuestionBlock, error) {
	if n < 1 || n > len(testCtx.Topics) {
		return nil, fmt.Errorf("no topic %d (have %d)", n, len(testCtx.Topics))
	}
	return testCtx.Topics[n-1], nil
}

func (testCtx *TestContext) image(n int) (*document.ExtractedImage, error) {
	if n < 1 || n > len(testCtx.Images) {
		return nil, fmt.Errorf("no image %d (have %d)", n, len(testCtx.Images))
	}
	return testCtx.Images[n-1], nil
}

func (testCtx *TestContext) topicShouldHaveImages(n, count int) error {
	t, err := testCtx.topic(n)
	if err != nil {
		return err
	}
	if len(t.Images) != count {
		return fmt.Errorf("expected topic %d to have %d images, got %v", n, count, t.Images)
	}
	return nil
}

func (testCtx *TestContext) imageShouldBeLinkedToTopic(imgN, topicN int) error {
	img, err := testCtx.image(imgN)
	if err != nil {
		return err
	}
	t, err := testCtx.topic(topicN)
	if err != nil {
		return err
	}
	if !slices.Contains(img.AssociatedTopicIDs, t.TopicID) || !slices.Contains(t.Images, img.ID) {
		return fmt.Errorf("expected %s linked to %s, image links %v", img.ID, t.TopicID, img.AssociatedTopicIDs)
	}
	return nil
}

func (testCtx *TestContext) imageShouldPointToTopic(imgN, topicN int) error {
	img, err := testCtx.image(imgN)
	if err != nil {
		return err
	}
	t, err := testCtx.topic(topicN)
	if err != nil {
		return err
	}
	if img.AssociatedTopicID == nil || *img.AssociatedTopicID != t.TopicID {
		return fmt.Errorf("expected %s to point to %s, got %v", img.ID, t.TopicID, img.AssociatedTopicID)
	}
	return nil
}

func (testCtx *TestContext) imageShouldNotBeLinked(n int) error {
	img, err := testCtx.image(n)
	if err != nil {
		return err
	}
	if img.AssociatedTopicID != nil || len(img.AssociatedTopicIDs) > 0 {
		return fmt.Errorf("expected %s to be unlinked, got %v", img.ID, img.AssociatedTopicIDs)
	}
	return nil
}

func (testCtx *TestContext) thereShouldBeAdjacentLinks(n int) error {
	if testCtx.Stats.AdjacentLinks != n {
		return fmt.Errorf("expected %d adjacent links, got %d", n, testCtx.Stats.AdjacentLinks)
	}
	return nil
}

func (testCtx *TestContext) theVerdictShouldBe(expected string) error {
	if got := testCtx.Report.Verdict(); got != expected {
		return fmt.Errorf("expected verdict %q, got %q (%+v)", expected, got, testCtx.Report)
	}
	return nil
}

func (testCtx *TestContext) theReportErrorShouldBe(expected string) error {
	if testCtx.Report.Error != expected {
		return fmt.Errorf("expected report error %q, got %q", expected, testCtx.Report.Error)
	}
	return nil
}

func (testCtx *TestContext) theImageCoverageShouldBe(expected float64) error {
	if math.Abs(testCtx.Report.ImageCoverage-expected) > 1e-9 {
		return fmt.Errorf("expected image coverage %.3f, got %.3f", expected, testCtx.Report.ImageCoverage)
	}
	return nil
}

func (testCtx *TestContext) theReportShouldWarnAbout(fragment string) error {
	for _, w := range testCtx.Report.Warnings {
		if strings.Contains(w, fragment) {
			return nil
		}
	}
	return fmt.Errorf("no warning mentions %q: %v", fragment, testCtx.Report.Warnings)
}

// RegisterAssociationSteps registers the association and validation steps.
func (testCtx *TestContext) RegisterAssociationSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a topic on page (\d+) reading "([^"]*)"$`, testCtx.aTopicOnPageReading)
	sc.Step(`^an image on page (\d+)$`, testCtx.anImageOnPage)
	sc.Step(`^images on pages "([^"]*)"$`, testCtx.imagesOnPages)
	sc.Step(`^I associate images with topics$`, testCtx.iAssociateImagesWithTopics)
	sc.Step(`^I build the validation report$`, testCtx.iBuildTheValidationReport)
	sc.Step(`^topic (\d+) should have (\d+) images?$`, testCtx.topicShouldHaveImages)
	sc.Step(`^image (\d+) should be linked to topic (\d+)$`, testCtx.imageShouldBeLinkedToTopic)
	sc.Step(`^image (\d+) should point to topic (\d+)$`, testCtx.imageShouldPointToTopic)
	sc.Step(`^image (\d+) should not be linked$`, testCtx.imageShouldNotBeLinked)
	sc.Step(`^there should be (\d+) adjacent links?$`, testCtx.thereShouldBeAdjacentLinks)
	sc.Step(`^the verdict should be "([^"]*)"$`, testCtx.theVerdictShouldBe)
	sc.Step(`^the report error should be "([^"]*)"$`, testCtx.theReportErrorShouldBe)
	sc.Step(`^the image coverage should be (\d+(?:\.\d+)?)$`, testCtx.theImageCoverageShouldBe)
	sc.Step(`^the report should warn about "([^"]*)"$`, testCtx.theReportShouldWarnAbout)
}
