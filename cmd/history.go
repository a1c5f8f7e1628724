package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sw33tLie/exifscope/pkg/storage"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous filter runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")
		since, _ := cmd.Flags().GetDuration("since")
		jsonOut, _ := cmd.Flags().GetBool("json")

		opts := storage.ListOptions{Limit: limit, Status: status}
		if since > 0 {
			opts.Since = time.Now().Add(-since)
		}

		db, _, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), opts)
		if err != nil {
			return err
		}

		if jsonOut {
			if runs == nil {
				runs = []storage.Run{}
			}
			return printJSON(os.Stdout, runs)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tSTATUS\tMATCHED\tSCANNED\tPROMPT\t")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				shortID(r.ID), humanize.Time(r.StartedAt), r.Status,
				humanize.Comma(int64(r.Matched)), humanize.Comma(int64(r.Scanned)), r.Prompt)
		}
		return w.Flush()
	},
}

// historyShowCmd represents the history show command
var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run with the files it copied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		db, _, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := findRun(context.Background(), db, args[0])
		if err != nil {
			return err
		}

		if jsonOut {
			return printJSON(os.Stdout, run)
		}

		fmt.Printf("Run:      %s\n", run.ID)
		fmt.Printf("Started:  %s (%s)\n", run.StartedAt.Local().Format(time.RFC1123), humanize.Time(run.StartedAt))
		fmt.Printf("Took:     %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		fmt.Printf("Prompt:   %s\n", run.Prompt)
		fmt.Printf("Base dir: %s\n", run.BaseDir)
		fmt.Printf("Output:   %s\n", run.OutputDir)
		fmt.Printf("Filter:   %s\n", run.FilterJSON)
		if run.Status == storage.StatusFailed {
			red.Printf("Status:   failed: %s\n", run.Error)
		} else {
			green.Printf("Status:   %s\n", run.Status)
		}
		fmt.Printf("Counts:   %d scanned, %d matched, %d skipped without timestamp\n",
			run.Scanned, run.Matched, run.SkippedMissingMeta)
		for _, f := range run.Files {
			fmt.Printf("  %s\n", f)
		}
		return nil
	},
}

// findRun accepts a full ID or the short prefix printed by history.
func findRun(ctx context.Context, db *storage.DB, id string) (storage.Run, error) {
	run, err := db.GetRun(ctx, id)
	if err == nil || len(id) >= 36 {
		return run, err
	}

	found, err := db.RunIDsWithPrefix(ctx, id)
	if err != nil {
		return storage.Run{}, err
	}
	switch len(found) {
	case 0:
		return storage.Run{}, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	case 1:
		return db.GetRun(ctx, found[0])
	default:
		return storage.Run{}, fmt.Errorf("ambiguous run id %s matches %d runs", id, len(found))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	historyCmd.Flags().String("status", "all", "Only list runs with this status: ok, failed or all")
	historyCmd.Flags().Duration("since", 0, "Only list runs started within this duration (e.g. 72h)")
	historyCmd.PersistentFlags().Bool("json", false, "Print JSON")
}
