// Package main provides the CLI entry point for tblexport-go.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/ukaji3/tblexport-go/pkg/tblexport"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/document"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/journal"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/spreadsheet"
	"golang.org/x/sync/errgroup"
)

var (
	pageRanges   string
	outputDir    string
	outputName   string
	split        bool
	maxRowHeight float64
	tableGap     int
	regionGap    int
	journalPath  string
	verbosity    int
	logFile      string
	historyLimit int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := tblexport.DefaultOptions()

	rootCmd := &cobra.Command{
		Use:   "tblexport [input.hwpx]",
		Short: "Export the tables of a word-processor document to a spreadsheet",
		Long: `tblexport-go walks the tables of an HWPX document page by page and
writes them to an Excel workbook, one sheet per page range.`,
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: configureLogging,
		RunE:              run,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "SQLite run journal (default: disabled)")

	rootCmd.Flags().StringVarP(&pageRanges, "range", "r", "1", `Page ranges, e.g. "124:200, 203:400"; a trailing start runs to the end`)
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (default: the input's directory)")
	rootCmd.Flags().StringVar(&outputName, "name", "", "Output file name (default: <input>_converted.xlsx)")
	rootCmd.Flags().BoolVar(&split, "split", false, "Split the first sheet into plain and labeled tables")
	rootCmd.Flags().Float64Var(&maxRowHeight, "max-row-height", defaults.MaxRowHeight, "Maximum display row height in points")
	rootCmd.Flags().IntVar(&tableGap, "table-gap", defaults.TableGap, "Blank rows left after each table")
	rootCmd.Flags().IntVar(&regionGap, "region-gap", defaults.Scan.RegionGap, "Blank rows between tables after rearrangement")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the journal",
		Args:  cobra.NoArgs,
		RunE:  history,
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to list")
	rootCmd.AddCommand(historyCmd)

	return rootCmd
}

func configureLogging(cmd *cobra.Command, args []string) error {
	var path *string
	if logFile != "" {
		path = &logFile
	}
	commonlog.Configure(verbosity, path)
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	// Validate input file exists
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	plan, err := models.ParsePlan(pageRanges)
	if err != nil {
		return err
	}

	opts := tblexport.DefaultOptions()
	opts.OutputDir = outputDir
	opts.OutputName = outputName
	opts.SplitFirstSheet = split
	opts.MaxRowHeight = maxRowHeight
	opts.TableGap = tableGap
	opts.Scan.RegionGap = regionGap
	opts.JournalPath = journalPath

	exporter := tblexport.NewExporter(document.Open, spreadsheet.CreateWorkbook, opts)
	if opts.JournalPath != "" {
		j, err := journal.Open(opts.JournalPath)
		if err != nil {
			return err
		}
		defer j.Close()
		exporter.WithRecorder(j)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := tblexport.NewSession(plan)
	progress := make(chan tblexport.Progress, 16)
	var outcome tblexport.Outcome

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(progress)
		outcome = exporter.Run(ctx, session, inputPath, tblexport.ChannelSink(progress))
		return nil
	})
	g.Go(func() error {
		for p := range progress {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %s\n", p.Percent, p.Status)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	switch outcome.Status {
	case tblexport.StatusFailed:
		if outcome.OutputPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "partial output saved to %s\n", outcome.OutputPath)
		}
		return outcome.Err
	default:
		fmt.Fprintln(cmd.OutOrStdout(), outcome.OutputPath)
	}
	return nil
}

func history(cmd *cobra.Command, args []string) error {
	if journalPath == "" {
		return fmt.Errorf("no journal configured, use --journal")
	}
	j, err := journal.Open(journalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.Recent(historyLimit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t[%s]\t%d/%d\t%s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Status, r.Input, r.Plan,
			r.Exported, r.Total, r.Output)
		if r.Error != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\terror: %s\n", r.Error)
		}
	}
	return nil
}
