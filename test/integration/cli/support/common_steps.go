package support

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// iRun executes a ledgerscan command line.
func (testCtx *TestContext) iRun(command string) error {
	testCtx.RunCommand(command)
	return nil
}

// iRunWithStdinFrom executes command with the named file on stdin.
func (testCtx *TestContext) iRunWithStdinFrom(command, name string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	testCtx.Stdin = string(data)
	defer func() { testCtx.Stdin = "" }()
	testCtx.RunCommand(command)
	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theExitCodeShouldBe verifies the exit status the CLI would report.
func (testCtx *TestContext) theExitCodeShouldBe(code int) error {
	if testCtx.LastExitCode != code {
		return fmt.Errorf("exit code %d, want %d (error: %v)", testCtx.LastExitCode, code, testCtx.LastError)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBe(expected *godog.DocString) error {
	if testCtx.LastOutput != expected.Content {
		return fmt.Errorf("output mismatch\nwant: %q\ngot:  %q", expected.Content, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theErrorOutputShouldContain(text string) error {
	if !strings.Contains(testCtx.LastStderr, text) {
		return fmt.Errorf("stderr does not contain '%s'\nActual stderr: %s", text, testCtx.LastStderr)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies the output is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	if !json.Valid([]byte(testCtx.LastOutput)) {
		return fmt.Errorf("output is not valid JSON: %s", testCtx.LastOutput)
	}
	return nil
}

// theJSONFieldShouldBe compares a dotted path of the JSON output, e.g.
// "summary.accepted" or "files.0.kind".
func (testCtx *TestContext) theJSONFieldShouldBe(path, expected string) error {
	var doc interface{}
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &doc); err != nil {
		return fmt.Errorf("output is not valid JSON: %w", err)
	}

	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			cur = node[part]
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return fmt.Errorf("invalid index %q in %s", part, path)
			}
			cur = node[i]
		default:
			return fmt.Errorf("cannot descend into %s at %q", path, part)
		}
	}

	if got := fmt.Sprint(cur); got != expected {
		return fmt.Errorf("%s = %s, want %s", path, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain '%s'\nContent: %s", name, text, data)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContainText(name string, text *godog.DocString) error {
	return testCtx.theFileShouldContain(name, text.Content)
}

func (testCtx *TestContext) aConfigFileWith(name string, content *godog.DocString) error {
	return os.WriteFile(testCtx.register(name), []byte(content.Content), 0o600)
}

func (testCtx *TestContext) theEnvironmentVariableIs(name, value string) error {
	if !strings.HasPrefix(name, "LEDGERSCAN_") {
		return errors.New("only LEDGERSCAN_ variables may be set by scenarios")
	}
	return testCtx.SetEnv(name, value)
}

// RegisterCommonSteps registers command, output and file steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRun)
	sc.Step(`^I run "([^"]*)" with stdin from "([^"]*)"$`, testCtx.iRunWithStdinFrom)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the exit code should be (\d+)$`, testCtx.theExitCodeShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be:$`, testCtx.theOutputShouldBe)
	sc.Step(`^the error output should contain "([^"]*)"$`, testCtx.theErrorOutputShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the file "([^"]*)" should contain:$`, testCtx.theFileShouldContainText)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aConfigFileWith)
	sc.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, testCtx.theEnvironmentVariableIs)
}
