package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/vistext/internal/detector"
	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/ocr"
	"github.com/MeKo-Tech/vistext/internal/utils"
	"github.com/spf13/cobra"
)

// detectCmd runs region detection on a single page image.
var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect picture regions on one page image",
	Long: `Detect non-text picture regions on a rasterized page and print them as JSON.

Text is located with Tesseract when the binary was built with -tags ocr.
Otherwise text boxes can be supplied with --boxes (a JSON array of
{"rect":{"Min":{"X":..,"Y":..},"Max":{..}},"confidence":..,"text":".."}),
or detection runs without text suppression.

Examples:
  vistext detect page_88.png
  vistext detect page_88.png --overlay page_88_overlay.png
  vistext detect page_88.png --boxes words.json --max-regions 3`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	f := detectCmd.Flags()
	f.String("overlay", "", "write the page with region outlines to this PNG")
	f.String("boxes", "", "JSON file with text boxes to suppress (skips OCR)")
	f.Int("max-regions", detector.DefaultConfig().MaxRegions, "maximum regions per page")
	f.Int("min-size", detector.DefaultConfig().MinSize, "minimum region side in pixels")
	bindFlag(f, "max-regions", "detector.max_regions")
	bindFlag(f, "min-size", "detector.min_size")
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	img, err := utils.LoadImage(args[0])
	if err != nil {
		return err
	}
	det, err := detector.NewDetector(cfg.ToDetectorConfig())
	if err != nil {
		return err
	}

	boxesFile, _ := cmd.Flags().GetString("boxes")
	boxes, err := textBoxes(boxesFile, img, cfg.OCR)
	if err != nil {
		return err
	}

	regions := det.Detect(img, boxes)
	b := img.Bounds()
	data, err := detector.RegionsToJSON(regions, b.Dx(), b.Dy())
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(data)); err != nil {
		return err
	}

	if overlay, _ := cmd.Flags().GetString("overlay"); overlay != "" {
		vis := detector.VisualizeRegions(img, regions, detector.VisualizeOptions{Thickness: 3, TextBoxes: boxes})
		if err := utils.SavePNG(overlay, vis); err != nil {
			return err
		}
		slog.Info("Overlay written", "path", overlay, "regions", len(regions))
	}
	return nil
}

// textBoxes reads boxes from file when given, otherwise asks the OCR
// locator. A build without OCR yields no boxes.
func textBoxes(file string, img image.Image, cfg ocr.Config) ([]document.TextBox, error) {
	if file != "" {
		data, err := os.ReadFile(file) //nolint:gosec // G304: user-supplied path
		if err != nil {
			return nil, fmt.Errorf("read text boxes: %w", err)
		}
		var boxes []document.TextBox
		if err := json.Unmarshal(data, &boxes); err != nil {
			return nil, fmt.Errorf("parse text boxes %s: %w", file, err)
		}
		return boxes, nil
	}

	locator, err := ocr.New(cfg)
	if errors.Is(err, ocr.ErrOCRNotEnabled) {
		slog.Info("OCR not compiled in, detecting without text suppression")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = locator.Close() }()
	boxes, err := locator.LocateTextBoxes(img)
	if err != nil {
		slog.Warn("Text location failed, detecting without text suppression", "error", err)
		return nil, nil
	}
	return boxes, nil
}
