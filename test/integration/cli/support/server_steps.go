package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/MeKo-Tech/vistext/internal/associator"
	"github.com/MeKo-Tech/vistext/internal/classifier"
	"github.com/MeKo-Tech/vistext/internal/scorer"
	"github.com/MeKo-Tech/vistext/internal/server"
	"github.com/MeKo-Tech/vistext/internal/testutil"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) theServerIsRunning() error {
	srv, err := server.NewServer(server.Config{
		CORSOrigin:  "*",
		MaxUploadMB: 1,
		TimeoutSec:  10,
		Rules:       classifier.DefaultRules(),
		Scorer:      scorer.DefaultConfig(),
		Associator:  associator.DefaultConfig(),
	})
	if err != nil {
		return err
	}
	testCtx.HTTPServer = httptest.NewServer(srv.Handler())
	return nil
}

func (testCtx *TestContext) iGet(path string) error {
	resp, err := http.Get(testCtx.HTTPServer.URL + path) //nolint:noctx // test request
	if err != nil {
		return err
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) iPostJSON(path string, body *godog.DocString) error {
	resp, err := http.Post(testCtx.HTTPServer.URL+path, "application/json", //nolint:noctx // test request
		strings.NewReader(body.Content))
	if err != nil {
		return err
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) iUploadAPictureToScore() error {
	pic := image.NewRGBA(image.Rect(0, 0, 300, 250))
	testutil.DrawPicture(pic, pic.Bounds())
	data, err := utils.EncodePNG(pic)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "picture.png")
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	resp, err := http.Post(testCtx.HTTPServer.URL+"/v1/score", w.FormDataContentType(), &body) //nolint:noctx // test request
	if err != nil {
		return err
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) theUploadedPictureShouldBeScoredAsALikelyImage() error {
	var resp server.ScoreResponse
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &resp); err != nil {
		return fmt.Errorf("decode score response: %w", err)
	}
	if !resp.Result.LikelyImage {
		return fmt.Errorf("picture scored %d, not a likely image", resp.Result.Score)
	}
	return nil
}

func (testCtx *TestContext) recordResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("expected status %d, got %d: %s", code, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(fragment string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, fragment) {
		return fmt.Errorf("response does not contain %q: %s", fragment, testCtx.LastHTTPResponse)
	}
	return nil
}

func saveImage(path string, img image.Image) error {
	data, err := utils.EncodePNG(img)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// RegisterServerSteps registers the HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the vistext server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGet)
	sc.Step(`^I POST to "([^"]*)" with:$`, testCtx.iPostJSON)
	sc.Step(`^I upload a picture to score$`, testCtx.iUploadAPictureToScore)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the uploaded picture should be scored as a likely image$`,
		testCtx.theUploadedPictureShouldBeScoredAsALikelyImage)
}
