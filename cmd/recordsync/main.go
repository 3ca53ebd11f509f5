package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"RecordSync/internal/app"
	"RecordSync/internal/config"
	"RecordSync/internal/domain"
	"RecordSync/internal/logging"
	"RecordSync/internal/usecase"
)

const usageText = `usage: recordsync <command> [flags]

commands:
  lookup   [--input file.csv]                 search the directory for every pending input row
  export   [path.csv|path.xlsx]               write the lookup results
  stats                                       print lookup counters
  failed                                      list inputs whose lookup failed
  extract  --date D --type T --breeding-html F --pregnancy-html F
                                              read saved grid pages into extraction documents
  prepare  --date D --type T                  convert extracted records into submission documents
  submit   --date D --type T [--file doc.json]
                                              review and submit a prepared document
  sync     --date D --type T                  prepare, review and submit in one go
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stderr, usageText)
		return 2
	}
	command, rest := args[0], args[1:]

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format).With(
		"run_id", uuid.NewString(),
		"command", command,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger, app.Options{
		Reviewer: newPromptReviewer(stdin, stdout),
		Preview:  stdout,
	})
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close job log store", "error", err)
		}
	}()

	err = dispatch(ctx, application, command, rest, stdout)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprint(stderr, usageText)
		return 2
	case errors.Is(err, usecase.ErrNoRecords):
		logger.Error("nothing to do", "error", err)
		return 1
	default:
		logger.Error("command failed", "error", err)
		return 1
	}
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, a *app.Application, command string, args []string, stdout io.Writer) error {
	switch command {
	case "lookup":
		fs := newFlagSet(command)
		input := fs.String("input", "", "input table (defaults to paths.input)")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		summary, err := a.Lookup(ctx, *input)
		fmt.Fprintf(stdout, "processed %d, skipped %d (found %d, not found %d, errors %d)\n",
			summary.Processed, summary.Skipped, summary.Found, summary.NotFound, summary.Errors)
		return err

	case "export":
		fs := newFlagSet(command)
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		path, summary, err := a.Export(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "exported %d results to %s (found %d, not found %d, skipped errors %d)\n",
			summary.Exported, path, summary.Found, summary.NotFound, summary.Skipped)
		return nil

	case "stats":
		return a.Stats(ctx, stdout)

	case "failed":
		_, err := a.Failed(ctx, stdout)
		return err

	case "extract":
		fs := newFlagSet(command)
		date, dataType := dateFlags(fs)
		breeding := fs.String("breeding-html", "", "saved breeding grid page")
		pregnancy := fs.String("pregnancy-html", "", "saved pregnancy grid page")
		dt, err := parseDated(fs, args, dataType)
		if err != nil {
			return err
		}
		result, err := a.Extract(ctx, *date, dt, usecase.ExtractSources{Breeding: *breeding, Pregnancy: *pregnancy})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "extracted %d breeding and %d pregnancy records\n", result.Breeding, result.Pregnancy)
		return nil

	case "prepare":
		fs := newFlagSet(command)
		date, dataType := dateFlags(fs)
		dt, err := parseDated(fs, args, dataType)
		if err != nil {
			return err
		}
		result, err := a.Prepare(ctx, *date, dt)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "prepared %d records; review %s\n", result.Records(), result.Document)
		return nil

	case "submit":
		fs := newFlagSet(command)
		date, dataType := dateFlags(fs)
		file := fs.String("file", "", "submission document (defaults to the one for --date and --type)")
		dt, err := parseDated(fs, args, dataType)
		if err != nil {
			return err
		}
		result, err := a.Submit(ctx, *date, dt, *file)
		printSubmit(stdout, result)
		return err

	case "sync":
		fs := newFlagSet(command)
		date, dataType := dateFlags(fs)
		dt, err := parseDated(fs, args, dataType)
		if err != nil {
			return err
		}
		_, result, err := a.Sync(ctx, *date, dt)
		printSubmit(stdout, result)
		return err

	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func dateFlags(fs *flag.FlagSet) (*string, *string) {
	date := fs.String("date", time.Now().Format("2006-01-02"), "event date, YYYY-MM-DD")
	dataType := fs.String("type", string(domain.DataTypeAll), "all, breeding or pregnancy")
	return date, dataType
}

func parseDated(fs *flag.FlagSet, args []string, dataType *string) (domain.DataType, error) {
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%s: %v: %w", fs.Name(), err, errUsage)
	}
	return domain.ParseDataType(*dataType)
}

func printSubmit(w io.Writer, r usecase.SubmitResult) {
	if r.Cancelled {
		fmt.Fprintln(w, "submission cancelled")
		return
	}
	if r.Total == 0 {
		return
	}
	fmt.Fprintf(w, "submitted %d of %d records, %d failed\n", r.Submitted, r.Total, r.Failed)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  failed: %s %s: %s\n", f.Record.IndividualID, f.Record.ClassificationCode.Label(), f.Error)
	}
}
