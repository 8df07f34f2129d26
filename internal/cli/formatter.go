package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/idelchi/cachestat/internal/cachestat"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 1
)

// summaryOutput is a Summary with its derived average, as emitted by
// PrintJSON and PrintYAML.
type summaryOutput struct {
	Identity     string `json:"identity"      yaml:"identity"`
	Count        uint32 `json:"count"         yaml:"count"`
	AverageBytes uint64 `json:"average_bytes" yaml:"average_bytes"`
	TotalBytes   uint64 `json:"total_bytes"   yaml:"total_bytes"`
}

type reportOutput struct {
	Category   string          `json:"category"    yaml:"category"`
	Root       string          `json:"root"        yaml:"root"`
	Exists     bool            `json:"exists"      yaml:"exists"`
	EntryCount int             `json:"entry_count" yaml:"entry_count"`
	TotalBytes uint64          `json:"total_bytes" yaml:"total_bytes"`
	Mode       cachestat.Mode  `json:"mode"        yaml:"mode"`
	TopN       int             `json:"top_n"       yaml:"top_n"`
	Elapsed    time.Duration   `json:"elapsed"     yaml:"elapsed"`
	Summaries  []summaryOutput `json:"summaries"   yaml:"summaries"`
}

func toOutput(reports []*cachestat.Report) []reportOutput {
	out := make([]reportOutput, 0, len(reports))

	for _, r := range reports {
		summaries := make([]summaryOutput, 0, len(r.Summaries))
		for _, s := range r.Summaries {
			summaries = append(summaries, summaryOutput{
				Identity:     s.Identity,
				Count:        s.Count,
				AverageBytes: s.Average(),
				TotalBytes:   s.TotalBytes,
			})
		}

		out = append(out, reportOutput{
			Category:   r.Category,
			Root:       r.Root,
			Exists:     r.Exists,
			EntryCount: r.EntryCount,
			TotalBytes: r.TotalBytes,
			Mode:       r.Mode,
			TopN:       r.TopN,
			Elapsed:    r.Elapsed,
			Summaries:  summaries,
		})
	}

	return out
}

// PrintJSON outputs the reports in JSON format.
func PrintJSON(reports []*cachestat.Report, writer io.Writer) error {
	data, err := json.MarshalIndent(toOutput(reports), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintYAML outputs the reports in YAML format.
func PrintYAML(reports []*cachestat.Report, writer io.Writer) error {
	enc := yaml.NewEncoder(writer)
	enc.SetIndent(2)

	if err := enc.Encode(toOutput(reports)); err != nil {
		return fmt.Errorf("encoding YAML output: %w", err)
	}

	return enc.Close()
}

// RenderTable renders summaries as a Name/Count/Average/Total table.
// No summaries render as the empty string, without a header.
func RenderTable(summaries []cachestat.Summary) string {
	if len(summaries) == 0 {
		return ""
	}

	var sb strings.Builder

	w := tabwriter.NewWriter(&sb, 0, 0, TabSpacing, ' ', 0)

	fmt.Fprintln(w, "Name\tCount\tAverage\tTotal")

	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.Identity, strconv.FormatUint(uint64(s.Count), 10),
			humanize.Bytes(s.Average()), humanize.Bytes(s.TotalBytes))
	}

	_ = w.Flush()

	return sb.String()
}

// PrintTable outputs one section per existing cache root.
func PrintTable(reports []*cachestat.Report, writer io.Writer) error {
	for _, r := range reports {
		if !r.Exists {
			continue
		}

		if _, err := fmt.Fprintf(writer, "\nSummary of: %s (%s total)\n",
			r.Root, humanize.Bytes(r.TotalBytes)); err != nil {
			return err
		}

		if _, err := io.WriteString(writer, RenderTable(r.Summaries)); err != nil {
			return err
		}
	}

	return nil
}
