package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/ledgerscan/internal/quality"
)

// report is the document written by the json and yaml formats.
type report struct {
	Files   []FileResult `json:"files" yaml:"files"`
	Summary Stats        `json:"summary" yaml:"summary"`
}

// formatBatchResults formats the results in the specified format.
func formatBatchResults(r *Result, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(r)
	case "yaml":
		return formatYAML(r)
	case "csv":
		return formatCSV(r)
	case "text", "":
		return formatText(r), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(r *Result) (string, error) {
	bts, err := json.MarshalIndent(report{Files: r.Files, Summary: r.Stats()}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

func formatYAML(r *Result) (string, error) {
	bts, err := yaml.Marshal(report{Files: r.Files, Summary: r.Stats()})
	if err != nil {
		return "", err
	}
	return string(bts), nil
}

// csvHeader is one row per gated image; PDF pages add one row per page image.
var csvHeader = []string{
	"file", "kind", "page", "image", "accepted", "issues",
	"luminance_mean", "luminance_variance", "dark_pixel_ratio",
	"border_dark_ratio", "inner_dark_ratio", "aspect_ratio", "error",
}

func formatCSV(r *Result) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write(csvHeader); err != nil {
		return "", err
	}

	for _, f := range r.Files {
		var rows [][]string
		switch {
		case f.Error != "":
			rows = append(rows, csvRow(f.Path, f.Kind, "", "", nil, nil, f.Error))
		case f.Verdict != nil:
			rows = append(rows, csvRow(f.Path, f.Kind, "", "0", f.Metrics, f.Verdict, ""))
		case f.Document != nil:
			for _, p := range f.Document.Pages {
				for _, img := range p.Images {
					rows = append(rows, csvRow(f.Path, f.Kind, strconv.Itoa(p.PageNumber),
						strconv.Itoa(img.ImageIndex), &img.Metrics, &img.Verdict, ""))
				}
			}
		}
		for _, row := range rows {
			if err := writer.Write(row); err != nil {
				return "", err
			}
		}
	}

	writer.Flush()
	return output.String(), writer.Error()
}

func csvRow(path, kind, page, image string, m *quality.Metrics, v *quality.Verdict, errText string) []string {
	row := []string{path, kind, page, image, "", "", "", "", "", "", "", "", errText}
	if v != nil {
		row[4] = strconv.FormatBool(v.Accepted)
		row[5] = issueList(v.Issues, ";")
	}
	if m != nil {
		for i, f := range []float64{
			m.LuminanceMean, m.LuminanceVariance, m.DarkPixelRatio,
			m.BorderDarkRatio, m.InnerDarkRatio, m.AspectRatio,
		} {
			row[6+i] = strconv.FormatFloat(f, 'f', 4, 64)
		}
	}
	return row
}

func issueList(issues []quality.Issue, sep string) string {
	names := make([]string, len(issues))
	for i, issue := range issues {
		names[i] = issue.String()
	}
	return strings.Join(names, sep)
}

// formatText renders one block per file.
func formatText(r *Result) string {
	var output strings.Builder
	for i, f := range r.Files {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString(fmt.Sprintf("# %s\n", f.Path))

		switch {
		case f.Error != "":
			output.WriteString(fmt.Sprintf("error: %s\n", f.Error))
		case f.Verdict != nil:
			writeVerdict(&output, "", *f.Verdict)
		case f.Document != nil:
			if len(f.Document.Pages) == 0 {
				output.WriteString("rejected: no page images found\n")
			}
			for _, p := range f.Document.Pages {
				for _, img := range p.Images {
					writeVerdict(&output, fmt.Sprintf("page %d image %d: ", p.PageNumber, img.ImageIndex), img.Verdict)
				}
			}
		}
	}
	return output.String()
}

func writeVerdict(b *strings.Builder, prefix string, v quality.Verdict) {
	if v.Accepted {
		b.WriteString(prefix + "accepted\n")
		return
	}
	b.WriteString(prefix + "rejected: " + issueList(v.Issues, ", ") + "\n")
	for _, msg := range v.Messages() {
		b.WriteString("  - " + msg + "\n")
	}
}
