package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage mediastamp configuration settings.

Configuration is loaded from:
  1. the file given with --config
  2. $XDG_CONFIG_HOME/mediastamp/config.yaml (if set)
  3. ~/.config/mediastamp/config.yaml

Environment variables override config file settings using the MEDIASTAMP_ prefix:
  MEDIASTAMP_DIR=~/Pictures/inbox
  MEDIASTAMP_OUTPUT=json
  MEDIASTAMP_MANIFEST_ENABLED=true`,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Long:  `Display the configuration after merging defaults, the config file and the environment.`,
			Args:  cobra.NoArgs,
			RunE:  a.runConfigShow,
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit configuration file",
			Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
			Args: cobra.NoArgs,
			RunE: a.runConfigEdit,
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create default configuration file",
			Long:  `Create a commented default configuration file if one doesn't exist.`,
			Args:  cobra.NoArgs,
			RunE:  a.runConfigInit,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file path",
			Args:  cobra.NoArgs,
			RunE:  a.runConfigPath,
		},
	)
	return configCmd
}

func (a *app) runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if a.cfg.File != "" {
		fmt.Fprintf(out, "# Config file: %s\n", a.cfg.File)
	} else {
		fmt.Fprintln(out, "# Config file: (none found, using defaults)")
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(a.cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

func (a *app) runConfigEdit(cmd *cobra.Command, _ []string) error {
	path, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if created {
		a.printInfo(cmd, "Created default config file: %s", path)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = cmd.OutOrStdout()
	editorCmd.Stderr = cmd.ErrOrStderr()

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func (a *app) runConfigInit(cmd *cobra.Command, _ []string) error {
	path, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if !created {
		a.printInfo(cmd, "Config file already exists: %s", path)
		a.printInfo(cmd, "Use 'mediastamp config edit' to modify it.")
		return nil
	}
	a.printInfo(cmd, "Created default config file: %s", path)
	return nil
}

// runConfigPath prints the file in use, or the default location when none was read.
func (a *app) runConfigPath(cmd *cobra.Command, _ []string) error {
	path := a.cfg.File
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
