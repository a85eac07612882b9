package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/noah-isme/gradebook-api/internal/dto"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/service"
)

func renderSeedReport(out io.Writer, report service.SeedReport) {
	color.New(color.FgGreen).Fprintln(out, "demo data loaded")

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Record", "Created"})
	rows := [][]string{
		{"grade levels", strconv.Itoa(report.GradeLevels)},
		{"users", strconv.Itoa(report.Users)},
		{"subjects", strconv.Itoa(report.Subjects)},
		{"enrollments", strconv.Itoa(report.Enrollments)},
		{"activities", strconv.Itoa(report.Activities)},
		{"grades", strconv.Itoa(report.Grades)},
		{"change requests", strconv.Itoa(report.ChangeRequests)},
	}
	table.AppendBulk(rows)
	table.Render()
}

func renderStudentReport(out io.Writer, report dto.StudentReportResponse) {
	color.New(color.FgCyan, color.Bold).Fprintf(out, "\n=== %s (#%d) ===\n", report.StudentName, report.StudentID)

	if len(report.Subjects) == 0 {
		color.New(color.FgYellow).Fprintln(out, "no enrolled subjects")
	}

	for _, subject := range report.Subjects {
		color.New(color.FgYellow).Fprintf(out, "\n%s %s\n", subject.SubjectCode, subject.SubjectName)

		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Unit", "Activity", "Score", "Max", "Status"})
		for _, unit := range subject.Units {
			for _, line := range unit.Activities {
				table.Append(lineRow(unit.Unit, line))
			}
			table.Append([]string{unit.Unit, "zone subtotal", formatScore(unit.ZoneSubtotal), formatScore(unit.ZoneMax), ""})
		}
		for _, line := range subject.Partials {
			table.Append(lineRow("partial", line))
		}
		table.SetFooter([]string{"", "", "", "total", formatScore(subject.SubjectTotal)})
		table.Render()
	}

	fmt.Fprintf(out, "\noverall average: %s\n", formatScore(report.Average))
}

func lineRow(unit string, line dto.ActivityLineResponse) []string {
	score := "-"
	if line.Value != nil {
		score = formatScore(*line.Value)
	}
	maxScore := ""
	if line.MaxScore > 0 {
		maxScore = formatScore(line.MaxScore)
	}
	status := line.Status
	if status == grading.LineLegacy {
		status = "removed activity"
	}
	return []string{unit, line.Name, score, maxScore, status}
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
