package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/datamatch/datamatch/internal/match"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeResults(w io.Writer, format string, results []match.Result) error {
	if format == formatJSON {
		return writeJSON(w, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Candidate", "Score", "Distance", "Reason")
	for i, r := range results {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			r.CandidateID,
			strconv.Itoa(r.Score),
			formatDistance(r.DistanceMiles),
			truncate(r.Reason, 60),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func writeSuggestions(w io.Writer, format string, s match.Suggestions) error {
	if format == formatJSON {
		return writeJSON(w, s)
	}

	sections := []struct {
		title string
		list  []match.Suggestion
	}{
		{"Top matches", s.Top},
		{"Nearby", s.Location},
		{"Similar schedule", s.Availability},
		{"Professional", s.Professional},
		{"Niche interests", s.Niche},
	}

	fmt.Fprintf(w, "%d potential matches\n", s.TotalPotentialMatches)
	for _, sec := range sections {
		if len(sec.list) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", sec.title)

		table := tablewriter.NewWriter(w)
		table.Header("Candidate", "Score", "Distance", "Reason")
		for _, sg := range sec.list {
			if err := table.Append([]string{
				sg.CandidateID,
				strconv.Itoa(sg.Score),
				formatDistance(sg.DistanceMiles),
				truncate(sg.Reason, 60),
			}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}

func formatDistance(miles *float64) string {
	if miles == nil {
		return "-"
	}
	return strconv.FormatFloat(*miles, 'f', 0, 64) + " mi"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
