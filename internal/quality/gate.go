package quality

import (
	"fmt"
	"strings"
)

// Issue is a reason a capture was rejected.
type Issue int

// Issues in detection order.
const (
	Blurred Issue = iota + 1
	Shadowed
	IncompleteTable
	NarrowAngle
)

// AllIssues lists every issue in detection order.
var AllIssues = []Issue{Blurred, Shadowed, IncompleteTable, NarrowAngle}

var issueNames = map[Issue]string{
	Blurred:         "blurred",
	Shadowed:        "shadowed",
	IncompleteTable: "incomplete_table",
	NarrowAngle:     "narrow_angle",
}

var issueMessages = map[Issue]string{
	Blurred:         "The photo is blurred. Hold the device steady and let the camera focus before capturing.",
	Shadowed:        "A shadow covers part of the page. Move to even lighting and avoid casting a shadow with the device.",
	IncompleteTable: "The table is not fully inside the frame. Move back so all four edges of the page are visible.",
	NarrowAngle:     "The page was captured at a steep angle. Hold the device parallel to the page.",
}

// String returns the stable machine name of the issue.
func (i Issue) String() string {
	if s, ok := issueNames[i]; ok {
		return s
	}
	return fmt.Sprintf("issue(%d)", int(i))
}

// Message returns the operator-facing message for the issue.
func (i Issue) Message() string {
	return issueMessages[i]
}

// ParseIssue is the inverse of String.
func ParseIssue(s string) (Issue, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range issueNames {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown quality issue %q", s)
}

// MarshalText encodes the issue by name, used by JSON and YAML output.
func (i Issue) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText decodes an issue name.
func (i *Issue) UnmarshalText(b []byte) error {
	v, err := ParseIssue(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// UnanalyzableMessage is shown instead of the four individual messages when a
// capture could not be analyzed at all.
const UnanalyzableMessage = "The photo could not be analyzed. Please capture the page again."

// Verdict is the outcome of the gate.
type Verdict struct {
	Accepted bool    `json:"accepted" yaml:"accepted"`
	Issues   []Issue `json:"issues" yaml:"issues"`
}

// Has reports whether the verdict contains issue.
func (v Verdict) Has(issue Issue) bool {
	for _, i := range v.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// Unanalyzable reports whether every rule fired, which the gate uses to signal a
// capture that produced no usable metrics.
func (v Verdict) Unanalyzable() bool {
	if len(v.Issues) != len(AllIssues) {
		return false
	}
	for _, i := range AllIssues {
		if !v.Has(i) {
			return false
		}
	}
	return true
}

// Messages returns one message per issue, or a single message for unanalyzable captures.
func (v Verdict) Messages() []string {
	if v.Unanalyzable() {
		return []string{UnanalyzableMessage}
	}
	out := make([]string, 0, len(v.Issues))
	for _, i := range v.Issues {
		out = append(out, i.Message())
	}
	return out
}

// Policy holds the gate thresholds.
type Policy struct {
	// Blurred when luminance variance is below this.
	MinVariance float64 `json:"min_variance" yaml:"min_variance"`
	// Shadowed when the dark ratio exceeds ShadowDarkRatio on an otherwise bright page.
	ShadowDarkRatio float64 `json:"shadow_dark_ratio" yaml:"shadow_dark_ratio"`
	ShadowMinMean   float64 `json:"shadow_min_mean" yaml:"shadow_min_mean"`
	// IncompleteTable when the interior holds ink but the border band does not.
	IncompleteInnerRatio  float64 `json:"incomplete_inner_ratio" yaml:"incomplete_inner_ratio"`
	IncompleteBorderRatio float64 `json:"incomplete_border_ratio" yaml:"incomplete_border_ratio"`
	// NarrowAngle when the aspect ratio falls outside [MinAspect, MaxAspect].
	MinAspect float64 `json:"min_aspect" yaml:"min_aspect"`
	MaxAspect float64 `json:"max_aspect" yaml:"max_aspect"`
}

// DefaultPolicy returns the thresholds used at capture time.
func DefaultPolicy() Policy {
	return Policy{
		MinVariance:           900,
		ShadowDarkRatio:       0.30,
		ShadowMinMean:         70,
		IncompleteInnerRatio:  0.02,
		IncompleteBorderRatio: 0.004,
		MinAspect:             0.6,
		MaxAspect:             1.8,
	}
}

// Evaluate applies DefaultPolicy.
func Evaluate(m Metrics) Verdict {
	return DefaultPolicy().Evaluate(m)
}

// Evaluate applies every rule to m; rules do not short-circuit.
// Zero metrics come from an empty buffer and fail every rule.
func (p Policy) Evaluate(m Metrics) Verdict {
	if m.IsZero() {
		issues := make([]Issue, len(AllIssues))
		copy(issues, AllIssues)
		return Verdict{Accepted: false, Issues: issues}
	}

	issues := make([]Issue, 0, len(AllIssues))
	if m.LuminanceVariance < p.MinVariance {
		issues = append(issues, Blurred)
	}
	if m.DarkPixelRatio > p.ShadowDarkRatio && m.LuminanceMean > p.ShadowMinMean {
		issues = append(issues, Shadowed)
	}
	if m.InnerDarkRatio > p.IncompleteInnerRatio && m.BorderDarkRatio < p.IncompleteBorderRatio {
		issues = append(issues, IncompleteTable)
	}
	if m.AspectRatio > p.MaxAspect || m.AspectRatio < p.MinAspect {
		issues = append(issues, NarrowAngle)
	}
	return Verdict{Accepted: len(issues) == 0, Issues: issues}
}

// Validate reports inconsistent thresholds.
func (p Policy) Validate() error {
	if p.MinVariance < 0 {
		return fmt.Errorf("min variance must not be negative: %v", p.MinVariance)
	}
	ratios := []struct {
		name  string
		value float64
	}{
		{"shadow dark ratio", p.ShadowDarkRatio},
		{"incomplete inner ratio", p.IncompleteInnerRatio},
		{"incomplete border ratio", p.IncompleteBorderRatio},
	}
	for _, r := range ratios {
		if r.value < 0 || r.value > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0: %v", r.name, r.value)
		}
	}
	if p.ShadowMinMean < 0 || p.ShadowMinMean > 255 {
		return fmt.Errorf("shadow min mean must be between 0 and 255: %v", p.ShadowMinMean)
	}
	if p.MinAspect <= 0 || p.MaxAspect <= p.MinAspect {
		return fmt.Errorf("aspect range must satisfy 0 < min < max: [%v, %v]", p.MinAspect, p.MaxAspect)
	}
	return nil
}
