package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TableFixture is an OCR response fragment together with the table it must
// reconstruct to.
type TableFixture struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Response        json.RawMessage `json:"response"`
	ExpectedHeaders []string        `json:"expected_headers"`
	ExpectedCSV     string          `json:"expected_csv"`
}

var tableFixtures = []TableFixture{
	{
		Name:        "two_columns",
		Description: "Two declared columns, one row addressed by column index",
		Response: json.RawMessage(`{
  "column_headers": [{"label": "A"}, {"label": "B"}],
  "data_rows": [{"cells": [{"col_index": 0, "text": "1"}, {"col_index": 1, "text": "2"}]}]
}`),
		ExpectedHeaders: []string{"A", "B"},
		ExpectedCSV:     "A,B\n1,2",
	},
	{
		Name:        "overflow_label",
		Description: "A cell without a column index adds its label as a new column",
		Response: json.RawMessage(`{
  "column_headers": [{"label": "A"}, {"label": "B"}],
  "data_rows": [{"cells": [
    {"col_index": 0, "text": "1"},
    {"col_index": 1, "text": "2"},
    {"col_index": -1, "label": "Extra", "text": "x"}
  ]}]
}`),
		ExpectedHeaders: []string{"A", "B", "Extra"},
		ExpectedCSV:     "A,B,Extra\n1,2,x",
	},
	{
		Name:        "dues_ledger",
		Description: "Two-level header with spans, flat rows and a totals row",
		Response: json.RawMessage(`{
  "column_headers": [{"label": "No"}, {"label": "Name"}, {"label": "Jan"}, {"label": "Feb"}],
  "header_rows": [
    [{"label": "No", "row_span": 2}, {"label": "Name", "row_span": 2}, {"label": "Dues", "col_span": 2}],
    [{"label": "Jan"}, {"label": "Feb"}]
  ],
  "data_rows": [
    {"cells": [{"col_index": 0, "text": "1"}, {"col_index": 1, "text": "Ann <Lee>"}, {"col_index": 2, "text": "10.00"}, {"col_index": 3, "text": "5"}]},
    {"No": "2", "Name": "Bo, Jr.", "Jan": "7.50", "confidence": 0.91}
  ],
  "totals_row": {"cells": [{"col_index": 2, "text": "17.50"}, {"col_index": 3, "text": "6"}]}
}`),
		ExpectedHeaders: []string{"No", "Name", "Jan", "Feb"},
		ExpectedCSV:     "No,Name,Jan,Feb\n1,Ann <Lee>,10.00,5\n2,\"Bo, Jr.\",7.50,",
	},
}

// TableFixtures returns every built-in table fixture.
func TableFixtures() []TableFixture {
	out := make([]TableFixture, len(tableFixtures))
	copy(out, tableFixtures)
	return out
}

// FixtureByName looks up a built-in table fixture.
func FixtureByName(name string) (TableFixture, bool) {
	for _, f := range tableFixtures {
		if f.Name == name {
			return f, true
		}
	}
	return TableFixture{}, false
}

// WriteResponse writes the fixture's response fragment to dir/<name>.json and
// returns the path.
func WriteResponse(t *testing.T, dir string, fixture TableFixture) string {
	t.Helper()
	return WriteFile(t, dir, fixture.Name+".json", fixture.Response)
}

// SaveFixture saves a fixture as JSON under dir.
func SaveFixture(t *testing.T, dir string, fixture TableFixture) string {
	t.Helper()

	data, err := json.MarshalIndent(fixture, "", "  ")
	require.NoError(t, err, "Failed to marshal fixture to JSON")
	return WriteFile(t, dir, fixture.Name+".fixture.json", data)
}

// LoadFixture loads a fixture saved by SaveFixture.
func LoadFixture(t *testing.T, dir, name string) TableFixture {
	t.Helper()

	fixturePath := filepath.Join(dir, name+".fixture.json")
	data, err := os.ReadFile(fixturePath) //nolint:gosec // G304: Reading test fixture files with controlled paths
	require.NoError(t, err, "Failed to read fixture file: %s", fixturePath)

	var fixture TableFixture
	require.NoError(t, json.Unmarshal(data, &fixture), "Failed to unmarshal fixture JSON")
	return fixture
}
