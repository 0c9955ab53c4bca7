package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/vistext/internal/metrics"
	"github.com/MeKo-Tech/vistext/internal/pipeline"
	"github.com/spf13/cobra"
)

// extractCmd runs the full extraction pipeline on one PDF.
var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract topics and images from a scanned PDF",
	Long: `Extract question topics and their images from a scanned PDF.

Pages are rasterized and searched for picture regions, embedded images are
pulled from the PDF objects, and the document is partitioned into text
elements that are classified as questions. Images are linked to topics on the
same or an adjacent page. images.json, topics.json, validation_report.json and
the image files are written to the output directory.

Examples:
  vistext extract book.pdf
  vistext extract book.pdf --pages 88-92 --output out --progress
  vistext extract book.pdf --partition api --api-key $UNSTRUCTURED_API_KEY
  vistext extract locked.pdf --password secret --sqlite runs.db
  vistext extract book.pdf --pages 88-92 --by-page`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	f := extractCmd.Flags()
	f.String("pages", "", "page range to process (e.g. '88-92', '1,3,5-7')")
	f.Float64("dpi", pipeline.DefaultConfig().DPI, "rasterization resolution")
	f.StringP("output", "o", "output", "output directory")
	f.String("api-key", "", "partition API key (defaults to UNSTRUCTURED_API_KEY or .env)")
	f.String("partition", "auto", "partitioner: auto, local or api")
	f.String("partition-url", "", "partition API endpoint")
	f.Bool("keep-unlikely", false, "keep regions the scorer rates as unlikely images")
	f.Bool("embedded", true, "also extract images embedded in the PDF objects")
	f.Int("min-text-length", pipeline.DefaultMinTextLength, "skip text elements shorter than this")
	f.String("overlay-dir", "", "write page overlays with detected regions to this directory")
	f.String("sqlite", "", "also record the run in this SQLite database")
	f.Bool("by-page", false, "also copy images into pages/page_NNN folders with per-page metadata")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address while extracting (e.g. :9090)")
	f.StringP("password", "p", "", "user password for encrypted PDFs")
	f.String("owner-password", "", "owner password for encrypted PDFs")
	f.Bool("progress", false, "show a progress bar on stderr")
	f.Duration("timeout", 0, "abort the run after this duration (0 = no limit)")

	for flag, key := range map[string]string{
		"pages":           "extract.pages",
		"dpi":             "extract.dpi",
		"output":          "extract.output_dir",
		"api-key":         "partition.api_key",
		"partition":       "partition.mode",
		"partition-url":   "partition.url",
		"keep-unlikely":   "extract.keep_unlikely",
		"embedded":        "extract.embedded",
		"min-text-length": "extract.min_text_length",
		"overlay-dir":     "extract.overlay_dir",
		"sqlite":          "extract.sqlite",
		"by-page":         "extract.by_page",
		"metrics-addr":    "extract.metrics_addr",
		"password":        "extract.user_password",
		"owner-password":  "extract.owner_password",
	} {
		bindFlag(f, flag, key)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	pcfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if cfg.Extract.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.Extract.MetricsAddr)
		defer shutdown()
	}

	var progress pipeline.ProgressCallback = pipeline.NewLogProgressCallback(slog.Default(), slog.LevelInfo)
	if show, _ := cmd.Flags().GetBool("progress"); show {
		progress = pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "")
	}

	p, err := pipeline.NewBuilder().
		WithConfig(pcfg).
		WithProgressCallback(progress).
		Build()
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	res, err := p.Run(ctx, args[0])
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("extraction interrupted: %w", err)
		}
		return err
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), res.Summary())
	return nil
}

// serveMetrics exposes /metrics in the background and returns its shutdown.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
