package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/logging"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/manifest"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/media"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/output"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/watcher"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Stamp a directory, then keep stamping as files arrive",
		Long: `Process the directory once, then watch it and process it again whenever a
photo or video is added, renamed into place or rewritten. Bursts of changes
are collapsed into a single pass (see watch.debounce in the config).

Only runs that create at least one sidecar are recorded in the history.
Press Ctrl+C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runWatch,
	}
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
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
	if err := a.report(cmd, formatter, result); err != nil {
		return err
	}

	exts := a.extensions()
	w, err := watcher.New(run.Dir, a.cfg.Watch.Debounce, func(path string) bool {
		return exts.Contains(media.Ext(path))
	})
	if err != nil {
		return err
	}
	defer w.Close()

	a.noticef(cmd, "Watching %s for new photos and videos (Ctrl+C to stop)", w.Dir())
	logging.Get("cli").Info("watch started", "dir", w.Dir(), "debounce", a.cfg.Watch.Debounce)

	return w.Run(ctx, func(ctx context.Context) error {
		return a.restamp(ctx, cmd, w.Dir())
	})
}

// restamp runs one pass triggered by a change and reports new sidecars.
func (a *app) restamp(ctx context.Context, cmd *cobra.Command, dir string) error {
	run, err := a.stamp(ctx, dir, io.Discard)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}
	if run.CreatedCount() == 0 {
		return nil
	}

	result := output.NewResult(run, time.Local)
	a.record(manifest.OpWatch, run, result)
	for _, e := range result.Media() {
		if e.Status == string(types.SidecarCreated) {
			a.noticef(cmd, "Sidecar %s created (%s)", e.Sidecar, e.Created)
		}
	}
	a.noticef(cmd, "%s %s, %s total",
		humanize.Comma(int64(run.CreatedCount())),
		plural(run.CreatedCount(), "sidecar created", "sidecars created"),
		humanize.IBytes(uint64(run.MediaBytes())))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
