package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/daniel/expert-match/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintDoctorMatches outputs a human-readable summary of ranked doctor
// matches.
func (p *Printer) PrintDoctorMatches(caseID string, matches []types.DoctorMatch) {
	var sb strings.Builder

	if len(matches) == 0 {
		sb.WriteString("No candidates passed the filters.\n")
	}
	shown := matches
	if len(shown) > maxItemsToShow {
		shown = shown[:maxItemsToShow]
	}
	for _, m := range shown {
		name := m.Doctor.Name
		if name == "" {
			name = m.Doctor.ID
		}
		sb.WriteString(fmt.Sprintf("%2d. %-30s %6.1f\n", m.Rank, name, m.Score.OverallScore))
		sb.WriteString(fmt.Sprintf("    %s\n", m.Rationale))
	}
	if len(matches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(matches)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("Doctor matches for case %s", caseID), strings.TrimRight(sb.String(), "\n"))
}

// PrintFacilityMatches outputs a human-readable summary of ranked
// facility matches.
func (p *Printer) PrintFacilityMatches(caseID string, matches []types.FacilityMatch) {
	var sb strings.Builder

	if len(matches) == 0 {
		sb.WriteString("No facilities passed the filters.\n")
	}
	for _, m := range matches {
		name := m.Facility.Name
		if name == "" {
			name = m.Facility.ID
		}
		sb.WriteString(fmt.Sprintf("%2d. %-30s %6.1f\n", m.Rank, name, m.Score.OverallScore))
		sb.WriteString(fmt.Sprintf("    %s\n", m.Rationale))
	}

	p.printBox(fmt.Sprintf("Facility routing for case %s", caseID), strings.TrimRight(sb.String(), "\n"))
}

// PrintPriority outputs the queue priority breakdown for a case.
func (p *Printer) PrintPriority(caseID string, score types.PriorityScore) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Overall:      %6.1f\n", score.OverallScore))
	sb.WriteString(fmt.Sprintf("Urgency:      %6.3f\n", score.Urgency))
	sb.WriteString(fmt.Sprintf("Complexity:   %6.3f\n", score.Complexity))
	sb.WriteString(fmt.Sprintf("Availability: %6.3f\n", score.Availability))
	sb.WriteString(score.Rationale)

	p.printBox(fmt.Sprintf("Priority for case %s", caseID), sb.String())
}
