package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/primes/pkg/primes/counter"
	"github.com/jamesainslie/primes/pkg/primes/history"
	"github.com/jamesainslie/primes/pkg/primes/output"
)

// runCount is the root command: count primes up to args[0] and print the result.
func (a *app) runCount(cmd *cobra.Command, args []string) error {
	// Only a format asked for on the command line may fail the run. A bad
	// configured format degrades to plain output.
	explicit := cmd.Flags().Changed("output") || cmd.Flags().Changed("template")

	formatter, err := a.formatter()
	if err != nil {
		if explicit {
			return err
		}
		a.printWarning("%v; using plain output", err)
		formatter = &output.PlainFormatter{}
	}

	max := counter.ParseBound(args[0])
	logger.Info("run started", "arg", args[0], "max", max)

	started := time.Now()
	res := counter.Run(max)
	result := output.NewResult(res, started, time.Since(started))

	a.record(result)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		if explicit {
			return fmt.Errorf("formatting result: %w", err)
		}
		a.printWarning("formatting result: %v; using plain output", err)
		buf.Reset()
		if err := (&output.PlainFormatter{}).Format(&buf, result); err != nil {
			return fmt.Errorf("formatting result: %w", err)
		}
	}
	if _, err := a.stdout.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}

	logger.Info("run finished", "max", max, "primes", res.Primes, "cpu", res.CPUDuration())
	return nil
}

// formatter resolves the output format from flags and configuration.
func (a *app) formatter() (output.Formatter, error) {
	name := a.cfg.Output
	if name == "" {
		name = "plain"
	}
	if name == "template" {
		return output.NewTemplateFormatter(a.cfg.Template), nil
	}
	return output.Get(name)
}

// record stores the run in the history database and sets result.ID.
// History is best effort: failures are logged and never fail the run.
func (a *app) record(result *output.Result) {
	if !a.cfg.History.Enabled || a.v.GetBool("no_history") {
		return
	}

	store, err := history.Open(a.cfg.History.Path)
	if err != nil {
		logger.Warn("history unavailable", "path", a.cfg.History.Path, "error", err)
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing history", "error", err)
		}
	}()

	run, err := store.Record(history.Run{
		StartedAt:  result.StartedAt,
		Max:        result.Max,
		Primes:     result.Primes,
		CPUSeconds: result.CPUSeconds,
		Wall:       result.Wall,
		Host:       result.Host,
	})
	if err != nil {
		logger.Warn("recording run", "error", err)
		return
	}
	result.ID = run.ID
}

// resultFromRun converts a stored run back into a formattable result.
func resultFromRun(run *history.Run) *output.Result {
	return &output.Result{
		ID:         run.ID,
		Max:        run.Max,
		Primes:     run.Primes,
		CPUSeconds: run.CPUSeconds,
		Wall:       run.Wall,
		StartedAt:  run.StartedAt,
		Host:       run.Host,
	}
}
