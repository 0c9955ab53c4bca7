package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/vistext/cmd/vistext/cmd"
	"github.com/MeKo-Tech/vistext/internal/testutil"
	"github.com/cucumber/godog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// iRunVistext executes the root command in process. {tmp} in the argument
// string expands to the scenario temp directory.
func (testCtx *TestContext) iRunVistext(argString string, stdin *godog.DocString) error {
	args := strings.Fields(strings.ReplaceAll(argString, "{tmp}", testCtx.TempDir))
	root := cmd.GetRootCommand()
	defer resetFlags(root)

	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	in := ""
	if stdin != nil {
		in = stdin.Content
	}
	root.SetIn(strings.NewReader(in))
	root.SetArgs(args)

	testCtx.LastArgs = args
	testCtx.LastError = root.Execute()
	testCtx.LastOutput = out.String()
	return nil
}

func (testCtx *TestContext) iRunVistextWithoutInput(argString string) error {
	return testCtx.iRunVistext(argString, nil)
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command %v failed: %w", testCtx.LastArgs, testCtx.LastError)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFailWith(fragment string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command %v succeeded, expected failure", testCtx.LastArgs)
	}
	if !strings.Contains(testCtx.LastError.Error(), fragment) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError, fragment)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(fragment string) error {
	if !strings.Contains(testCtx.LastOutput, fragment) {
		return fmt.Errorf("output does not contain %q:\n%s", fragment, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	if !json.Valid([]byte(testCtx.LastOutput)) {
		return fmt.Errorf("output is not valid JSON:\n%s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) aGeneratedPageImage(name string) error {
	img, boxes := testutil.GeneratePage(testutil.DefaultPageConfig())
	if err := saveImage(testCtx.TempPath(name), img); err != nil {
		return err
	}
	data, err := json.Marshal(boxes)
	if err != nil {
		return err
	}
	return os.WriteFile(testCtx.TempPath(strings.TrimSuffix(name, filepath.Ext(name))+".boxes.json"), data, 0o600)
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	path := strings.ReplaceAll(name, "{tmp}", testCtx.TempDir)
	if !testutil.FileExists(path) {
		return fmt.Errorf("file %s does not exist", path)
	}
	return nil
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// RegisterCLISteps registers the command line steps.
func (testCtx *TestContext) RegisterCLISteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run vistext with "([^"]*)" and input:$`, testCtx.iRunVistext)
	sc.Step(`^I run vistext with "([^"]*)"$`, testCtx.iRunVistextWithoutInput)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail with "([^"]*)"$`, testCtx.theCommandShouldFailWith)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^a generated page image "([^"]*)"$`, testCtx.aGeneratedPageImage)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
}
