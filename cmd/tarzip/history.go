package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tarzip/internal/manifest"
	"github.com/pdiddy/tarzip/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past conversion runs from the manifest",
	Long: `History lists the conversion runs recorded in the manifest database of
the input directory, newest first. With --run it shows the per-archive
records of a single run.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("dir", ".", "directory whose manifest is queried")
	historyCmd.Flags().Int("runs", 0, "maximum number of runs to show (default 20)")
	historyCmd.Flags().Int64("run", 0, "show the per-archive records of this run ID")
	historyCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	limit, _ := cmd.Flags().GetInt("runs")
	runID, _ := cmd.Flags().GetInt64("run")
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := manifest.Open(dir, types.ManifestConfig{MaxRuns: limit})
	if err != nil {
		return err
	}
	defer store.Close()

	if runID > 0 {
		recs, err := store.Conversions(runID)
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		}
		for _, rec := range recs {
			line := fmt.Sprintf("%-9s %s", rec.Status, rec.Input)
			if rec.Status == types.StatusFailed {
				line += fmt.Sprintf(" [%s] %s", rec.Stage, rec.Error)
			}
			fmt.Println(line)
		}
		return nil
	}

	runs, err := store.Runs(limit)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	for _, r := range runs {
		fmt.Printf("run %d  %s  %d converted, %d skipped, %d failed\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Converted, r.Skipped, r.Failed)
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
	}
	return nil
}
