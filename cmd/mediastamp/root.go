package main

import (
	"fmt"
	"io"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/birthtime"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/config"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/logging"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/media"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/output"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/sidecar"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v         *viper.Viper
	cfg       *config.Config
	cfgFile   string
	quiet     bool
	verbose   bool
	noHistory bool

	// creationTime overrides birthtime.Of when set.
	creationTime birthtime.Func
}

// newRootCmd builds the command tree. Each call returns an independent tree.
func newRootCmd() *cobra.Command {
	return buildRootCmd(&app{v: config.New()})
}

func buildRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediastamp [dir]",
		Short: "Record the creation time of photos and videos in sidecar files",
		Long: `mediastamp writes a <name>.txt file next to every photo and video in a
directory, holding the file's creation timestamp. Files that already have a
sidecar are left alone, so running it again only picks up new files.

Only the directory itself is processed; subdirectories are not entered.

Examples:
  mediastamp ~/Pictures/2024        # Stamp one directory
  mediastamp -o json ~/Pictures     # Machine-readable report
  mediastamp watch ~/Pictures       # Keep stamping as files arrive
  mediastamp inspect IMG_0001.JPG   # Show what would be recorded
  mediastamp history                # Past runs`,
		Args:               cobra.MaximumNArgs(1),
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE:               a.runStamp,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/mediastamp/config.yaml)")
	flags.StringP("output", "o", "", fmt.Sprintf("report format %v", output.Available()))
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "suppress per-file notices")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")
	flags.BoolVar(&a.noHistory, "no-history", false, "do not record this run in the history")

	_ = a.v.BindPFlag("output", flags.Lookup("output"))

	rootCmd.AddCommand(
		newWatchCmd(a),
		newInspectCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// setup loads configuration and starts logging before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := initLogging(cfg, a.verbose); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Get("cli").Debug("command started", "command", cmd.CommandPath(), "config", cfg.File)
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	return logging.Close()
}

// errNoDirectory explains how to supply the directory.
var errNoDirectory = fmt.Errorf("%w: pass it as an argument, set dir in the config file or set %s_DIR",
	sidecar.ErrNoDirectory, config.EnvPrefix)

// resolveDir returns the directory argument, falling back to the configured one.
func (a *app) resolveDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return config.ExpandPath(args[0])
	}
	if a.cfg.Dir != "" {
		return a.cfg.Dir, nil
	}
	return "", errNoDirectory
}

// extensions returns the configured allow-list, or the default one when
// the config lists none.
func (a *app) extensions() media.ExtensionSet {
	if exts := media.NewExtensionSet(a.cfg.Extensions...); exts.Len() > 0 {
		return exts
	}
	return media.DefaultExtensions
}

// formatter returns the configured report formatter.
func (a *app) formatter() (output.Formatter, error) {
	f, err := output.Get(a.cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, output.Available())
	}
	return f, nil
}

// notices returns where per-file notices go: nowhere when quiet, stderr
// when stdout carries a structured report, stdout otherwise.
func (a *app) notices(cmd *cobra.Command) io.Writer {
	switch {
	case a.quiet:
		return io.Discard
	case output.IsStructured(a.cfg.Output):
		return cmd.ErrOrStderr()
	default:
		return cmd.OutOrStdout()
	}
}

// noticef writes a status line to the notice stream, keeping stdout free
// for structured reports.
func (a *app) noticef(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(a.notices(cmd), format+"\n", args...)
}

// printInfo prints a status line unless quiet mode is on.
func (a *app) printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	if !a.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}
}
