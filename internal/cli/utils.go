// Package cli provides CLI utilities for vecgate.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/vecgate/internal/models"
	"github.com/hyperjump/vecgate/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteQueryResults writes one result list per query chunk to w in the given format.
func WriteQueryResults(w io.Writer, queries []string, results [][]models.QueryHit, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	// Long query texts are split server side, so lists map to queries only when the counts agree.
	labelled := len(queries) == len(results)
	for i, hits := range results {
		if labelled {
			fmt.Fprintf(w, "\nQuery %d: %q (%d results)\n\n", i+1, utils.Truncate(queries[i], 60), len(hits))
		} else {
			fmt.Fprintf(w, "\nQuery chunk %d (%d results)\n\n", i+1, len(hits))
		}
		for rank, hit := range hits {
			writeOneHit(w, rank+1, hit)
		}
	}
	return nil
}

func writeOneHit(w io.Writer, rank int, hit models.QueryHit) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", rank, hit.Score)
	fmt.Fprintf(w, "ID: %s\n", hit.ID)
	if len(hit.Metadata) > 0 {
		keys := make([]string, 0, len(hit.Metadata))
		for k := range hit.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, hit.Metadata[k])
		}
		fmt.Fprintf(w, "Metadata: %s\n", strings.Join(parts, " "))
	}
	fmt.Fprintf(w, "\n%s\n", utils.Truncate(hit.Document, 200))
	fmt.Fprintln(w)
}

// WriteIDs writes the IDs of ingested chunks, one per line in text format.
func WriteIDs(w io.Writer, ids []string, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, models.IDsResponse{IDs: ids})
	}
	fmt.Fprintf(w, "Stored %d chunks\n", len(ids))
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// WriteStatus writes the server status. Text output lists sections in name order.
func WriteStatus(w io.Writer, status map[string]map[string]any, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	sections := make([]string, 0, len(status))
	for name := range status {
		sections = append(sections, name)
	}
	sort.Strings(sections)
	for _, name := range sections {
		fmt.Fprintf(w, "%s:\n", name)
		fields := status[name]
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-18s %v\n", k+":", fields[k])
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
