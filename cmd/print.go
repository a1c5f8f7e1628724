package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sw33tLie/exifscope/pkg/pick"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReport writes the human summary of a pass.
func printReport(w io.Writer, report *pick.Report, dryRun bool) {
	verb := "Copied"
	if dryRun {
		verb = "Would copy"
	}

	if report.Matched == 0 {
		yellow.Fprintf(w, "No photos matched (%d scanned)\n", report.Scanned)
	} else {
		green.Fprintf(w, "✓ %s %d of %d photos\n", verb, report.Matched, report.Scanned)
	}
	if report.SkippedMissingMeta > 0 {
		yellow.Fprintf(w, "  %d skipped without a capture timestamp\n", report.SkippedMissingMeta)
	}
	fmt.Fprintf(w, "  Output: ")
	cyan.Fprintln(w, report.OutputDir)
	for _, f := range report.Files {
		fmt.Fprintf(w, "    %s\n", f)
	}
}

func printFailure(w io.Writer, err error) {
	red.Fprintf(w, "✗ %v\n", err)
}
