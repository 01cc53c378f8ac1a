package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tarzip/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List candidate input archives without converting them",
	Long: `Scan lists the compressed tar archives a convert run would pick up in the
input directory, together with the zip path each would produce.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("dir", ".", "directory scanned for input archives")
	scanCmd.Flags().Bool("all", false, "match every recognized suffix, not just gzip")
	scanCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	all, _ := cmd.Flags().GetBool("all")
	asJSON, _ := cmd.Flags().GetBool("json")

	suffixes := scan.DefaultSuffixes
	if all {
		suffixes = scan.AllSuffixes
	}

	inputs, err := scan.Archives(dir, suffixes)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(inputs)
	}

	for _, in := range inputs {
		fmt.Printf("%s -> %s\n", in.Path, in.OutputPath())
	}
	fmt.Printf("%d archive(s) found\n", len(inputs))
	return nil
}
