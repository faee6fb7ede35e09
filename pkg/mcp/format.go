package mcp

import (
	"fmt"
	"strings"

	"github.com/elunari/cascade/pkg/models"
)

func formatSummary(rows []models.ModelSummary) string {
	if len(rows) == 0 {
		return "No attempts recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-45s %8s %8s %9s %6s %10s\n",
		"Model", "Attempts", "Success", "Retryable", "Fatal", "Avg ms")
	b.WriteString(strings.Repeat("-", 91) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-45s %8d %8d %9d %6d %10.0f\n",
			shorten(r.Model, 45), r.Attempts, r.Successes, r.Retryable, r.Fatal, r.AvgLatencyMs)
	}
	return b.String()
}

func formatAttempts(recs []models.AttemptRecord) string {
	if len(recs) == 0 {
		return "No attempts recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-40s %-10s %6s %8s  %s\n",
		"Time", "Model", "Outcome", "Status", "Latency", "Error")
	b.WriteString(strings.Repeat("-", 100) + "\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "%-20s %-40s %-10s %6d %6dms  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			shorten(r.Model, 40), r.Outcome, r.StatusCode, r.LatencyMs,
			shorten(r.ErrorText, 60))
	}
	return b.String()
}

func formatCascade(list []string, origin string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cascade (%s, %d models)\n", origin, len(list))
	for i, m := range list {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, m)
	}
	return b.String()
}

func shorten(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
