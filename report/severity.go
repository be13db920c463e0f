package report

// Severity is the color band of a base score.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// Classify maps a score onto the bands 0.0-3.9, 4.0-6.9, 7.0-8.9. Both ends
// are inclusive, and anything that falls outside them is critical.
func Classify(score float64) Severity {
	switch {
	case 0.0 <= score && score <= 3.9:
		return SeverityLow
	case 4.0 <= score && score <= 6.9:
		return SeverityMedium
	case 7.0 <= score && score <= 8.9:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "critical"
	}
}

// Class is the CSS class used in the HTML report.
func (s Severity) Class() string {
	switch s {
	case SeverityLow:
		return "score-green"
	case SeverityMedium:
		return "score-orange"
	case SeverityHigh:
		return "score-red"
	default:
		return "score-darkred"
	}
}
