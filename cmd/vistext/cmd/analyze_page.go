package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/MeKo-Tech/vistext/internal/analysis"
	"github.com/MeKo-Tech/vistext/internal/classifier"
	"github.com/MeKo-Tech/vistext/internal/partition"
	"github.com/MeKo-Tech/vistext/internal/pdf"
	"github.com/spf13/cobra"
)

// analyzePageCmd inspects the structure of one PDF page.
var analyzePageCmd = &cobra.Command{
	Use:   "analyze-page <pdf>",
	Short: "Analyze the layout and content of one page",
	Long: `Analyze one page of a PDF before extracting it: the text blocks and their
left/right balance, the embedded images, the element types found by the
partitioner, likely questions and clinical terms. The page gets a recommended
extraction approach with the reasons behind it.

Examples:
  vistext analyze-page book.pdf --page 88
  vistext analyze-page book.pdf --page 88 --json
  vistext analyze-page book.pdf --page 88 --output page88.json --partition local`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyzePage,
}

func init() {
	rootCmd.AddCommand(analyzePageCmd)

	f := analyzePageCmd.Flags()
	f.Int("page", 0, "page number to analyze (required)")
	f.String("output", "", "also write the JSON report to this file")
	f.Bool("json", false, "print the JSON report instead of the summary")
	// Not bound to config keys: extract already binds these keys and a
	// key takes a single flag.
	f.StringP("password", "p", "", "user password for encrypted PDFs (overrides extract.user_password)")
	f.String("partition", "", "partitioner: auto, local or api (overrides partition.mode)")
}

func runAnalyzePage(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	page, _ := cmd.Flags().GetInt("page")
	if page < 1 {
		return errors.New("--page must be a page number starting at 1")
	}
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		cfg.Extract.UserPassword = pw
	}
	if mode, _ := cmd.Flags().GetString("partition"); mode != "" {
		cfg.Partition.Mode = mode
		if err := cfg.Partition.Validate(); err != nil {
			return err
		}
	}

	path, cleanup, err := pdf.Decrypt(args[0], cfg.Credentials())
	if err != nil {
		return err
	}
	defer cleanup()

	part, err := partition.New(cfg.Partition)
	if err != nil {
		return err
	}
	rules, err := cfg.ClassifierRules()
	if err != nil {
		return err
	}
	cls, err := classifier.New(rules)
	if err != nil {
		return err
	}
	a, err := analysis.New(cfg.PageAnalysis, pdf.NewTextExtractor(0), pdf.NewAssetExtractor(nil), part, cfg.Partition.Options, cls)
	if err != nil {
		return err
	}

	report, err := a.Analyze(cmd.Context(), path, page)
	if err != nil {
		return err
	}
	report.File = args[0]

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := os.WriteFile(out, append(data, '\n'), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	writePageSummary(cmd.OutOrStdout(), report)
	return nil
}

func writePageSummary(w io.Writer, r *analysis.Report) {
	_, _ = fmt.Fprintf(w, "Page %d of %s\n", r.Page, r.File)

	if s := r.Structure; s != nil {
		_, _ = fmt.Fprintf(w, "  Size:      %.0f x %.0f pt, %d text blocks, %d embedded images\n",
			s.Width, s.Height, s.TotalTextBlocks, s.EmbeddedImages)
		_, _ = fmt.Fprintf(w, "  Layout:    %d blocks left (%d chars), %d right (%d chars)\n",
			s.Layout.LeftBlocks, s.Layout.LeftText, s.Layout.RightBlocks, s.Layout.RightText)
	} else {
		_, _ = fmt.Fprintf(w, "  Structure: failed: %s\n", r.StructureError)
	}

	if c := r.Content; c != nil {
		types := make([]string, 0, len(c.ContentTypes))
		for name, n := range c.ContentTypes {
			types = append(types, fmt.Sprintf("%s %d", name, n))
		}
		slices.Sort(types)
		_, _ = fmt.Fprintf(w, "  Elements:  %d (%s)\n", c.TotalElements, strings.Join(types, ", "))
		_, _ = fmt.Fprintf(w, "  Questions: %d, concepts: %d\n", len(c.PotentialQuestions), len(c.PotentialConcepts))
		for _, q := range c.PotentialQuestions {
			_, _ = fmt.Fprintf(w, "    - %s\n", q.Text)
		}
		if len(c.MedicalTerms) > 0 {
			_, _ = fmt.Fprintf(w, "  Terms:     %s\n", strings.Join(c.MedicalTerms, ", "))
		}
	} else {
		_, _ = fmt.Fprintf(w, "  Content:   failed: %s\n", r.ContentError)
	}

	st := r.Strategy
	_, _ = fmt.Fprintf(w, "Strategy: %s (confidence %s, complexity %s)\n", st.Approach, st.Confidence, st.Complexity)
	for _, s := range st.SpecialHandling {
		_, _ = fmt.Fprintf(w, "  ! %s\n", s)
	}
	for _, s := range st.Reasons {
		_, _ = fmt.Fprintf(w, "  + %s\n", s)
	}
}
