package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/logging"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/manifest"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/output"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/sidecar"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
	"github.com/spf13/cobra"
)

// runStamp processes one directory and prints the run report.
func (a *app) runStamp(cmd *cobra.Command, args []string) error {
	dir, err := a.resolveDir(args)
	if err != nil {
		return err
	}
	formatter, err := a.formatter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := a.stamp(ctx, dir, a.notices(cmd))
	if errors.Is(err, context.Canceled) {
		a.cancelled(cmd)
		return nil
	}
	if err != nil {
		return err
	}

	result := output.NewResult(run, time.Local)
	a.record(manifest.OpStamp, run, result)
	return a.report(cmd, formatter, result)
}

// cancelled reports an interrupted run. Sidecars written before the
// interrupt stay and the run is not recorded.
func (a *app) cancelled(cmd *cobra.Command) {
	logging.Get("cli").Info("run cancelled")
	if !a.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "Run cancelled")
	}
}

// stamp runs the sidecar writer once over dir.
func (a *app) stamp(ctx context.Context, dir string, notices io.Writer) (*types.RunResult, error) {
	w, err := sidecar.New(sidecar.Options{
		Dir:          dir,
		Extensions:   a.extensions(),
		Out:          notices,
		CreationTime: a.creationTime,
	})
	if err != nil {
		return nil, err
	}
	return w.Run(ctx)
}

// record saves run in the history unless history is off. A failure to
// record is reported as a warning on result and never fails the run.
func (a *app) record(op manifest.OperationType, run *types.RunResult, result *output.Result) {
	if a.noHistory || !a.cfg.Manifest.Enabled {
		return
	}

	logger := logging.Get("cli")
	m, err := a.openManifest()
	if err == nil {
		var entry *manifest.Entry
		if entry, err = m.LogRun(op, run); err == nil {
			result.HistoryID = entry.ID
			return
		}
	}
	logger.Warn("failed to record run", "dir", run.Dir, "error", err)
	result.Warnings = append(result.Warnings, "history not recorded: "+err.Error())
}

// report formats result and writes it to stdout.
func (a *app) report(cmd *cobra.Command, formatter output.Formatter, result *output.Result) error {
	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return err
	}
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
