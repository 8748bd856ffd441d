package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"certo/internal/engine"
	"certo/internal/render"
	"certo/internal/spec"
)

// ExitError carries a process exit code through cobra's error return.
// Code 1 is a failed run, code 2 a structural problem (missing or
// unparseable document, unknown selection ID).
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string { return e.Msg }

var (
	checkOnly    []string
	checkSkip    []string
	checkOffline bool
	checkNoCache bool
	checkModel   string
	checkOutput  string
	checkReport  string
	checkQuiet   bool
	checkDir     string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the document's checks and report pass/fail",
	Long: `Execute every enabled check of every confirmed claim, plus the
standalone checks, and print a report.

Exit codes:
  0  all executed checks passed
  1  at least one check failed or errored
  2  the document is missing or unusable, or --only/--skip names an
     unknown ID`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkOnly, "only", nil, "run only these claim/check IDs")
	checkCmd.Flags().StringSliceVar(&checkSkip, "skip", nil, "skip these claim/check IDs")
	checkCmd.Flags().BoolVar(&checkOffline, "offline", false, "no network: skip llm checks and uncached url checks")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "ignore cached results and bodies")
	checkCmd.Flags().StringVar(&checkModel, "model", "", "override the configured llm model")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "text", "output format: text or json")
	checkCmd.Flags().StringVar(&checkReport, "report", "", "also write the JSON report to this file")
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "only failures and the summary")
	checkCmd.Flags().StringVarP(&checkDir, "dir", "C", ".", "start directory for the document search")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	specPath, projectRoot, err := spec.Find(checkDir)
	if err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "document: %s\n", specPath)
	}

	doc, err := spec.Load(specPath)
	if err != nil {
		return &ExitError{Code: 2, Msg: err.Error()}
	}

	eng, err := engine.New(cfg, projectRoot)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := eng.Run(ctx, doc, engine.Options{
		Only:    checkOnly,
		Skip:    checkSkip,
		Offline: checkOffline,
		NoCache: checkNoCache,
		Model:   checkModel,
	})
	if err != nil {
		var structural *engine.StructuralError
		if errors.As(err, &structural) {
			return &ExitError{Code: 2, Msg: structural.Msg}
		}
		return err
	}

	if checkReport != "" {
		f, err := os.Create(checkReport)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		if err := render.JSON(f, report); err != nil {
			_ = f.Close()
			return fmt.Errorf("write report: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close report file: %w", err)
		}
	}

	switch checkOutput {
	case "json":
		if err := render.JSON(os.Stdout, report); err != nil {
			return err
		}
	case "text":
		render.Text(os.Stdout, report, render.Options{Quiet: checkQuiet, Verbose: verbose})
	default:
		return fmt.Errorf("unknown output format: %s (supported: text, json)", checkOutput)
	}

	if report.Failed() {
		return &ExitError{Code: 1}
	}
	return nil
}
