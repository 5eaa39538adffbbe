// Package cli provides CLI output writers for Shindan.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/shindan/internal/advisor"
	"github.com/hyperjump/shindan/internal/models"
	"github.com/hyperjump/shindan/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json" (case-insensitive). Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OutputText):
		return OutputText, nil
	case string(OutputJSON):
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text or json)", s)
}

const rule = "─────────────────────────────────────────────────────────"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAdvice writes a ranked advice response.
func WriteAdvice(w io.Writer, resp *models.AdviceResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	names := make([]string, len(resp.Symptoms))
	for i, s := range resp.Symptoms {
		names[i] = s.Name
	}
	fmt.Fprintf(w, "\nSymptoms: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(w, "Overall severity: %s\n", resp.OverallSeverity)
	if resp.EmergencyWarning {
		fmt.Fprintln(w, "!! Some of these symptoms may need urgent medical attention.")
	}
	if len(resp.Advice) == 0 {
		fmt.Fprintln(w, "\nNo advice matched these symptoms. Consider consulting a healthcare professional.")
		return nil
	}
	fmt.Fprintf(w, "\nFound %d advice entries\n\n", len(resp.Advice))
	for i, a := range resp.Advice {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, a.Title, a.Severity)
		fmt.Fprintf(w, "Score: %.2f | Matches: %d (%.1f%%)\n", a.RelevanceScore, a.MatchingSymptoms, a.MatchPercentage)
		fmt.Fprintf(w, "\n%s\n", a.Recommendation)
		if a.WhenToSeeDoctor != "" {
			fmt.Fprintf(w, "See a doctor: %s\n", a.WhenToSeeDoctor)
		}
		if a.EmergencySigns != "" {
			fmt.Fprintf(w, "Emergency signs: %s\n", a.EmergencySigns)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteChat writes a chat reply.
func WriteChat(w io.Writer, reply *models.ChatReply, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, reply)
	}
	fmt.Fprintf(w, "\n%s\n", reply.Message)
	if len(reply.Symptoms) > 0 {
		fmt.Fprintf(w, "Detected: %s\n", strings.Join(reply.Symptoms, ", "))
	}
	for _, item := range reply.AdviceItems {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%s [%s] %d match(es), %.1f%%\n", item.Title, item.Severity, item.Matches, item.MatchPercentage)
		fmt.Fprintf(w, "%s\n", item.Recommendation)
		if item.DoctorAdvice != "" {
			fmt.Fprintf(w, "See a doctor: %s\n", item.DoctorAdvice)
		}
		if item.EmergencySigns != "" {
			fmt.Fprintf(w, "Emergency signs: %s\n", item.EmergencySigns)
		}
	}
	for _, tip := range reply.Tips {
		fmt.Fprintf(w, "  - %s\n", tip)
	}
	for _, s := range reply.Suggestions {
		fmt.Fprintf(w, "  \"%s\"\n", s)
	}
	fmt.Fprintln(w)
	return nil
}

// WriteSymptoms writes the symptom catalog grouped by category, in catalog order.
func WriteSymptoms(w io.Writer, symptoms []models.Symptom, format OutputFormat) error {
	if format == OutputJSON {
		if symptoms == nil {
			symptoms = []models.Symptom{}
		}
		return writeJSON(w, symptoms)
	}
	if len(symptoms) == 0 {
		fmt.Fprintln(w, "No symptoms found.")
		return nil
	}
	category := ""
	for i, s := range symptoms {
		if i == 0 || s.Category != category {
			category = s.Category
			fmt.Fprintf(w, "\n[%s]\n", category)
		}
		fmt.Fprintf(w, "  %3d  %-22s %-9s %s\n", s.ID, s.Name, s.Severity, utils.Truncate(s.Description, 50))
	}
	fmt.Fprintln(w)
	return nil
}

// WriteCategories writes the category list.
func WriteCategories(w io.Writer, categories []string, format OutputFormat) error {
	if format == OutputJSON {
		if categories == nil {
			categories = []string{}
		}
		return writeJSON(w, categories)
	}
	for _, c := range categories {
		fmt.Fprintln(w, c)
	}
	return nil
}

// WriteStatus writes the knowledge base status.
func WriteStatus(w io.Writer, status *advisor.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Ready:     %t\n", status.Ready)
	if status.Message != "" {
		fmt.Fprintf(w, "           %s\n", status.Message)
	}
	if status.Stats != nil {
		fmt.Fprintf(w, "Driver:    %s\n", status.Driver)
		fmt.Fprintf(w, "Symptoms:  %d\n", status.Symptoms)
		fmt.Fprintf(w, "Advice:    %d\n", status.Advice)
		fmt.Fprintf(w, "Mappings:  %d\n", status.Mappings)
		fmt.Fprintf(w, "Sessions:  %d\n", status.Sessions)
		if status.Fingerprint != "" {
			fmt.Fprintf(w, "Knowledge: %s\n", status.Fingerprint)
		}
		if status.DiskUsageBytes > 0 {
			fmt.Fprintf(w, "Disk:      %s\n", FormatBytes(status.DiskUsageBytes))
		}
	}
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
