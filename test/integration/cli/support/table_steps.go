package support

import (
	"fmt"
	"os"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/ledgerscan/internal/testutil"
)

// aTableResponse writes the built-in table fixture fixture to name.
func (testCtx *TestContext) aTableResponse(fixture, name string) error {
	f, ok := testutil.FixtureByName(fixture)
	if !ok {
		return fmt.Errorf("unknown table fixture %q", fixture)
	}
	return os.WriteFile(testCtx.register(name), f.Response, 0o600)
}

func (testCtx *TestContext) aResponseFileWith(name string, content *godog.DocString) error {
	return os.WriteFile(testCtx.register(name), []byte(content.Content), 0o600)
}

// theOutputShouldMatchFixtureCSV compares the output with the fixture's CSV.
func (testCtx *TestContext) theOutputShouldMatchFixtureCSV(fixture string) error {
	f, ok := testutil.FixtureByName(fixture)
	if !ok {
		return fmt.Errorf("unknown table fixture %q", fixture)
	}
	if testCtx.LastOutput != f.ExpectedCSV {
		return fmt.Errorf("CSV mismatch\nwant: %q\ngot:  %q", f.ExpectedCSV, testCtx.LastOutput)
	}
	return nil
}

// RegisterTableSteps registers the table response steps.
func (testCtx *TestContext) RegisterTableSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the "([^"]*)" table response "([^"]*)"$`, testCtx.aTableResponse)
	sc.Step(`^a table response "([^"]*)" with:$`, testCtx.aResponseFileWith)
	sc.Step(`^the output should be the "([^"]*)" CSV$`, testCtx.theOutputShouldMatchFixtureCSV)
}
