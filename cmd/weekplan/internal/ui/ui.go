package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/example/weekplan/internal/domain"
)

var (
	primaryColor   = lipgloss.Color("#7D56F4")
	secondaryColor = lipgloss.Color("#6C6C6C")
	successColor   = lipgloss.Color("#73F59F")
	warningColor   = lipgloss.Color("#F5C26B")
	errorColor     = lipgloss.Color("#FF6B6B")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	boldStyle = lipgloss.NewStyle().Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
)

// PrintHeader prints a section header
func PrintHeader(w io.Writer, title string) {
	line := strings.Repeat("=", len(title)+4)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n\n",
		headerStyle.Render(line),
		headerStyle.Render("  "+title+"  "),
		headerStyle.Render(line))
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", successStyle.Render("✓"), message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("✗"), message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", warningStyle.Render("⚠"), message)
}

// PrintInfo prints an informational message
func PrintInfo(w io.Writer, message string) {
	fmt.Fprintf(w, "  %s\n", message)
}

// PrintTable prints a simple table
func PrintTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	for i, h := range headers {
		fmt.Fprint(w, boldStyle.Render(pad(h, widths[i])), "  ")
	}
	fmt.Fprintln(w)

	for _, width := range widths {
		fmt.Fprint(w, strings.Repeat("-", width), "  ")
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprint(w, pad(cell, widths[i]), "  ")
		}
		fmt.Fprintln(w)
	}
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}

// PrintPlan renders a weekly plan: the summary box, the task table, the
// allocation table, the schedule when present, then recommendations and
// insights.
func PrintPlan(w io.Writer, resp *domain.WeeklyPlanResponse) {
	PrintHeader(w, "Week of "+resp.WeekStartDate)

	a := resp.Analysis
	summary := []string{
		fmt.Sprintf("Run:          %s", resp.RunID),
		fmt.Sprintf("Planned:      %.1fh of %.1fh", resp.TotalPlannedHours, a.CapacityHours),
		fmt.Sprintf("Utilization:  %s", utilization(a)),
		fmt.Sprintf("Balance:      %.2f", a.ProjectBalanceScore),
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(summary, "\n")))
	fmt.Fprintln(w)

	if len(resp.TaskPlans) == 0 {
		PrintWarning(w, "No tasks planned")
	} else {
		rows := make([][]string, 0, len(resp.TaskPlans))
		for _, p := range resp.TaskPlans {
			rows = append(rows, []string{
				priority(p.Priority),
				p.TaskTitle,
				p.ProjectTitle,
				fmt.Sprintf("%.1f", p.EstimatedHours),
				p.SuggestedDay,
			})
		}
		PrintTable(w, []string{"#", "TASK", "PROJECT", "HOURS", "DAY"}, rows)
	}

	if len(resp.SkippedTaskIDs) > 0 {
		fmt.Fprintln(w)
		PrintWarning(w, "Skipped unknown tasks: "+strings.Join(resp.SkippedTaskIDs, ", "))
	}

	if len(resp.Allocations) > 0 {
		fmt.Fprintln(w)
		realized := make(map[string]float64, len(resp.Metrics.ProjectDistribution))
		for _, d := range resp.Metrics.ProjectDistribution {
			realized[d.ProjectID] = d.RealizedHours
		}
		rows := make([][]string, 0, len(resp.Allocations))
		for _, al := range resp.Allocations {
			rows = append(rows, []string{
				al.ProjectTitle,
				fmt.Sprintf("%.0f%%", al.Percentage),
				fmt.Sprintf("%.1f", al.TargetHours),
				fmt.Sprintf("%.1f", al.MaxHours),
				fmt.Sprintf("%.1f", realized[al.ProjectID]),
			})
		}
		PrintTable(w, []string{"PROJECT", "SHARE", "TARGET", "MAX", "PLANNED"}, rows)
	}

	if len(resp.RecurringCommitments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, boldStyle.Render("Recurring"))
		for _, r := range resp.RecurringCommitments {
			PrintInfo(w, fmt.Sprintf("%s (%.1fh)", r.Title, r.EstimatedHours))
		}
	}

	if s := resp.Schedule; s != nil {
		fmt.Fprintln(w)
		printSchedule(w, s)
	}

	printList(w, "Recommendations", resp.Recommendations)
	printList(w, "Insights", resp.Insights)
}

func printSchedule(w io.Writer, s *domain.ScheduleResult) {
	fmt.Fprintln(w, boldStyle.Render("Schedule"))
	rows := make([][]string, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		rows = append(rows, []string{
			a.Day,
			a.Start.Format("15:04") + "-" + a.End.Format("15:04"),
			a.TaskID,
			fmt.Sprintf("%.1f", a.Hours),
		})
	}
	PrintTable(w, []string{"DAY", "TIME", "TASK", "HOURS"}, rows)
	for _, u := range s.Unplaced {
		PrintWarning(w, fmt.Sprintf("%s: %.1fh did not fit", u.TaskID, u.Hours))
	}
	if s.Complete {
		PrintSuccess(w, "All hours placed")
	}
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, boldStyle.Render(title))
	for _, it := range items {
		fmt.Fprintf(w, "  %s %s\n", subtleStyle.Render("•"), it)
	}
}

func utilization(a domain.ConstraintAnalysis) string {
	text := fmt.Sprintf("%.0f%%", a.CapacityUtilization*100)
	if a.OverloadRisk {
		return errorStyle.Render(text + " (overloaded)")
	}
	return successStyle.Render(text)
}

func priority(p int) string {
	if p <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", p)
}
