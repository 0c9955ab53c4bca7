package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MeKo-Tech/vistext/internal/classifier"
	"github.com/spf13/cobra"
)

// classifyCmd classifies one block of question text.
var classifyCmd = &cobra.Command{
	Use:   "classify [file|-]",
	Short: "Classify a block of question text",
	Long: `Classify a block of question text and print the result as JSON.

The text is read from the named file, or from stdin when the argument is
omitted or "-". The result lists the question type, its confidence, the
answer options, the correct answer and rationale when present, and the
subject heading.

Examples:
  vistext classify question.txt
  pbpaste | vistext classify --has-images
  vistext classify q.txt --rules my_rules.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	f := classifyCmd.Flags()
	f.Bool("has-images", false, "the text sits on a page with images")
	f.String("rules", "", "YAML rules file overlaying the default classifier rules")
	bindFlag(f, "rules", "classifier.rules_file")
}

type classifyOutput struct {
	classifier.Result
	Subject *string `json:"subject"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	rules, err := cfg.ClassifierRules()
	if err != nil {
		return err
	}
	c, err := classifier.New(rules)
	if err != nil {
		return err
	}

	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("no text to classify")
	}

	hasImages, _ := cmd.Flags().GetBool("has-images")
	out := classifyOutput{
		Result:  c.Classify(text, hasImages),
		Subject: c.ExtractSubject(text),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}
