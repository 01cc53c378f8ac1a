package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tarzip/internal/archive"
	"github.com/pdiddy/tarzip/internal/convert"
	"github.com/pdiddy/tarzip/internal/manifest"
	"github.com/pdiddy/tarzip/internal/scan"
	"github.com/pdiddy/tarzip/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [archives...]",
	Short: "Convert compressed tar archives to zip archives",
	Long: `Convert repackages compressed tar archives as zip archives with the same
file tree. Without arguments it scans the input directory for *.tar.gz and
*.tgz files; explicit arguments may use any recognized compressed-tar suffix
(.tar.gz, .tgz, .tar.bz2, .tar.xz, .tar.lz4). A directory with no matching
inputs is a successful no-op.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("dir", ".", "directory scanned for input archives")
	convertCmd.Flags().Bool("overwrite", false, "replace existing outputs and stale staging directories")
	convertCmd.Flags().Int("jobs", 1, "number of archives converted concurrently")
	convertCmd.Flags().Bool("keep-staging", false, "keep staging directories after conversion (debugging)")
	convertCmd.Flags().String("report", "", "write a YAML run report to this path")
	convertCmd.Flags().Bool("no-manifest", false, "do not record the run in the manifest database")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	color.NoColor = color.NoColor || !isatty.IsTerminal(os.Stdout.Fd())

	cfg := convertConfig(cmd)

	var inputs []types.InputArchive
	if len(args) > 0 {
		for _, arg := range args {
			in, err := scan.Resolve(arg)
			if err != nil {
				return err
			}
			inputs = append(inputs, in)
		}
	} else {
		var err error
		inputs, err = scan.Archives(cfg.Dir, scan.DefaultSuffixes)
		if err != nil {
			return err
		}
	}

	pipeline := convert.NewPipeline(archive.TarExtractor{}, archive.ZipWriter{}, cfg)
	result := pipeline.ConvertBatch(inputs, os.Stdout)

	if cfg.ReportPath != "" {
		if err := convert.WriteReport(cfg.ReportPath, cfg.Dir, result); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	noManifest, _ := cmd.Flags().GetBool("no-manifest")
	if !noManifest && len(inputs) > 0 {
		recordRun(cfg.Dir, result)
	}

	if result.HasFailures() {
		return fmt.Errorf("%d archive(s) failed conversion", result.Failed)
	}
	return nil
}

// convertConfig builds the run configuration from flags, falling back to
// config-file values for flags left at their defaults.
func convertConfig(cmd *cobra.Command) types.ConvertConfig {
	dir, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") {
		if v := viper.GetString("convert.dir"); v != "" {
			dir = v
		}
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	if !cmd.Flags().Changed("jobs") {
		if v := viper.GetInt("convert.jobs"); v > 0 {
			jobs = v
		}
	}
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	if !cmd.Flags().Changed("overwrite") && viper.IsSet("convert.overwrite") {
		overwrite = viper.GetBool("convert.overwrite")
	}
	keepStaging, _ := cmd.Flags().GetBool("keep-staging")
	reportPath, _ := cmd.Flags().GetString("report")

	return types.ConvertConfig{
		Dir:         dir,
		Overwrite:   overwrite,
		Jobs:        jobs,
		KeepStaging: keepStaging,
		ReportPath:  reportPath,
	}
}

// recordRun appends the run to the manifest database. Manifest problems
// are warnings; the conversions themselves already succeeded or failed on
// their own terms.
func recordRun(dir string, result convert.BatchResult) {
	store, err := manifest.Open(dir, types.ManifestConfig{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: manifest unavailable: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.RecordRun(dir, result); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run: %v\n", err)
	}
}
