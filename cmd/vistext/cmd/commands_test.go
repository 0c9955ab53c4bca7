package cmd

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/vistext/internal/detector"
	"github.com/MeKo-Tech/vistext/internal/scorer"
	"github.com/MeKo-Tech/vistext/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty working directory with no user config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return dir
}

func TestClassifyCommandStdin(t *testing.T) {
	isolate(t)
	text := "Which of the following is the first-line treatment?\n" +
		"A. Penicillin\nB. Vancomycin\nC. Doxycycline\nD. Rest\nCorrect answer: A"

	output, err := executeWithInput(t, rootCmd, text, []string{"classify"})
	require.NoError(t, err)

	var got classifyOutput
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "multiple_choice", got.Type.String())
	assert.Equal(t, []string{"Penicillin", "Vancomycin", "Doxycycline", "Rest"}, got.Options)
	require.NotNil(t, got.CorrectAnswer)
	assert.Equal(t, "A", *got.CorrectAnswer)
	assert.Nil(t, got.Subject)
}

func TestClassifyCommandFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "q.txt")
	require.NoError(t, os.WriteFile(path,
		[]byte("SUBJECT: Dermatology Assessment\nWhich lesion is shown in the image? A. Nevus B. Melanoma"), 0o600))

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"classify", path, "--has-images"})
	require.NoError(t, err)

	var got classifyOutput
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "multiple_choice", got.Type.String())
	assert.True(t, got.VisualBonus)
	require.NotNil(t, got.Subject)
	assert.Equal(t, "Dermatology Assessment", *got.Subject)
}

func TestClassifyCommandErrors(t *testing.T) {
	isolate(t)

	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"classify"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text to classify")

	_, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"classify", "/non/existent/q.txt"})
	require.Error(t, err)

	_, err = executeWithInput(t, rootCmd, "text", []string{"classify", "--rules", "/non/existent/rules.yaml"})
	require.Error(t, err)
}

func TestDetectCommandWithBoxes(t *testing.T) {
	dir := isolate(t)
	cfg := testutil.DefaultPageConfig()
	page, boxes := testutil.GeneratePage(cfg)

	pagePath := filepath.Join(dir, "page.png")
	testutil.SaveImage(t, page, pagePath)
	boxesPath := filepath.Join(dir, "boxes.json")
	data, err := json.Marshal(boxes)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(boxesPath, data, 0o600))
	overlay := filepath.Join(dir, "overlay.png")

	output, err := executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"detect", pagePath, "--boxes", boxesPath, "--overlay", overlay})
	require.NoError(t, err)

	res, regions, err := detector.RegionsFromJSON([]byte(output))
	require.NoError(t, err)
	assert.Equal(t, cfg.Size.Width, res.Width)
	assert.Equal(t, cfg.Size.Height, res.Height)
	require.Len(t, regions, 1)
	assert.True(t, cfg.Pictures[0].In(regions[0].Rect))
	assert.True(t, testutil.FileExists(overlay))
}

func TestDetectCommandErrors(t *testing.T) {
	dir := isolate(t)

	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"detect", "/non/existent/page.png"})
	require.Error(t, err)

	pagePath := filepath.Join(dir, "page.png")
	testutil.SaveImage(t, testutil.CreateTestImage(50, 50, color.White), pagePath)
	badBoxes := filepath.Join(dir, "boxes.json")
	require.NoError(t, os.WriteFile(badBoxes, []byte("not json"), 0o600))

	_, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"detect", pagePath, "--boxes", badBoxes})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse text boxes")

	_, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"detect", pagePath, "--max-regions", "0"})
	require.Error(t, err)
}

func TestAnalyzeCommand(t *testing.T) {
	dir := isolate(t)

	pic := image.NewRGBA(image.Rect(0, 0, 300, 250))
	testutil.DrawPicture(pic, pic.Bounds())
	testutil.SaveImage(t, pic, filepath.Join(dir, "page_88_region_1_abc123.png"))

	blank := image.NewRGBA(image.Rect(0, 0, 20, 20))
	draw.Draw(blank, blank.Bounds(), image.White, image.Point{}, draw.Src)
	testutil.SaveImage(t, blank, filepath.Join(dir, "page_88_region_2_def456.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"analyze", dir, "--workers", "2"})
	require.NoError(t, err)
	assert.Contains(t, output, "Likely images: 1")
	assert.Contains(t, output, "page_88_region_1_abc123.png")
	assert.Contains(t, output, "Page 88: 1 likely images")

	data, err := os.ReadFile(filepath.Join(dir, "filtered", "manifest.json"))
	require.NoError(t, err)
	var m scorer.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	require.Equal(t, 1, m.TotalImages)
	assert.Equal(t, "Score >= 40", m.FilterCriteria)
	assert.Equal(t, 88, m.Images[0].Page)
	assert.Equal(t, "Page 88, Region 1", m.Images[0].Description)
	assert.True(t, testutil.FileExists(filepath.Join(dir, "filtered", m.Images[0].Filename)))
}

func TestAnalyzeCommandEmptyDir(t *testing.T) {
	dir := isolate(t)
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"analyze", dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images found")
}

func TestNamedPageRegion(t *testing.T) {
	tests := []struct {
		name         string
		page, region int
	}{
		{"page_88_region_2_abc.png", 88, 2},
		{"page_5_embedded_1_ff.png", 5, 1},
		{"score_73_page_12_region_3_x.png", 12, 3},
		{"photo.png", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, region := namedPageRegion(tt.name)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.region, region)
		})
	}
}

func TestConfigInitShowAndPath(t *testing.T) {
	dir := isolate(t)
	t.Setenv("VISTEXT_PARTITION_API_KEY", "super-secret")

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"config", "init"})
	require.NoError(t, err)
	assert.Contains(t, output, "vistext.yaml")
	assert.True(t, testutil.FileExists(filepath.Join(dir, "vistext.yaml")))

	_, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"config", "init"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"config", "init", "--force"})
	require.NoError(t, err)

	output, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"config", "show"})
	require.NoError(t, err)
	assert.Contains(t, output, "output_dir: output")
	assert.Contains(t, output, masked)
	assert.NotContains(t, output, "super-secret")

	output, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"config", "path"})
	require.NoError(t, err)
	assert.Regexp(t, `Config file: .*vistext\.yaml`, output)
	assert.Contains(t, output, "/etc/vistext")
}

func TestConfigFlagOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analyze:\n  min_score: 55\n"), 0o600))

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"config", "show", "--config", path})
	require.NoError(t, err)
	assert.Contains(t, output, "min_score: 55")

	_, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"config", "show", "--config", filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestExtractCommandMissingFile(t *testing.T) {
	dir := isolate(t)
	missing := filepath.Join(dir, "missing.pdf")

	_, err := executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"extract", missing, "--output", filepath.Join(dir, "out"), "--partition", "local"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.pdf")
}

func TestExtractCommandRejectsBadPartitionMode(t *testing.T) {
	isolate(t)
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"extract", "book.pdf", "--partition", "cloud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestAnalyzePageCommand(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "cardio.pdf")
	testutil.WriteTextPDF(t, path, [][]string{{
		"Cardiac Disorders",
		"",
		"Which medication is first line for a patient with cardiac arrest?",
		"",
		"Select the nursing intervention for respiratory distress:",
	}})
	reportPath := filepath.Join(dir, "page1.json")

	output, err := executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"analyze-page", path, "--page", "1", "--partition", "local", "--output", reportPath})
	require.NoError(t, err)
	assert.Contains(t, output, "Page 1 of "+path)
	assert.Contains(t, output, "3 text blocks, 0 embedded images")
	assert.Contains(t, output, "Questions: 2, concepts: 1")
	assert.Contains(t, output, "Strategy: standard (confidence high, complexity low)")
	assert.Contains(t, output, "+ High medical terminology density")

	var report map[string]any
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &report))
	assert.InDelta(t, 1, report["pdf_page"], 1e-9)
	strategy, ok := report["extraction_strategy"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "standard", strategy["recommended_approach"])

	output, err = executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"analyze-page", path, "--page", "1", "--partition", "local", "--json"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Contains(t, report, "content_structure")
}

func TestAnalyzePageCommandErrors(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "one.pdf")
	testutil.WriteTextPDF(t, path, [][]string{{"Only page"}})

	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"analyze-page", path})
	require.ErrorContains(t, err, "--page")

	_, err = executeCommandAndCaptureOutput(t, rootCmd,
		[]string{"analyze-page", filepath.Join(dir, "missing.pdf"), "--page", "1", "--partition", "local"})
	require.Error(t, err)

	_, err = executeCommandAndCaptureOutput(t, rootCmd, []string{"analyze-page", path, "--page", "1", "--partition", "cloud"})
	require.Error(t, err)

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"analyze-page", path, "--page", "4", "--partition", "local"})
	require.NoError(t, err, "a missing page is reported, not fatal")
	assert.Contains(t, output, "Structure: failed: page 4 out of range")
}

func TestServeCommandFlags(t *testing.T) {
	for _, name := range []string{"host", "port", "cors-origin", "max-upload-size", "timeout", "shutdown-timeout"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}
