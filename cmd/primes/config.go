package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/primes/pkg/primes/config"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage primes configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/primes/config.yaml (if set)
  2. ~/.config/primes/config.yaml

Environment variables override the file using the PRIMES_ prefix:
  PRIMES_OUTPUT=json
  PRIMES_HISTORY_ENABLED=false
  PRIMES_LOGGING_LEVEL=debug`,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.runConfigShow() },
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create default configuration file",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.runConfigInit() },
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file path",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return a.runConfigPath() },
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit configuration file",
			Long: `Open the configuration file in $VISUAL, $EDITOR or vi.
A default file is created first if none exists.`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error { return a.runConfigEdit() },
		},
	)

	return configCmd
}

// envOverrides lists the environment variables config show reports.
var envOverrides = []string{
	"PRIMES_OUTPUT",
	"PRIMES_TEMPLATE",
	"PRIMES_HISTORY_ENABLED",
	"PRIMES_HISTORY_PATH",
	"PRIMES_HISTORY_RETENTION_DAYS",
	"PRIMES_LOGGING_LEVEL",
	"PRIMES_LOGGING_PATH",
}

// runConfigShow displays the effective configuration.
func (a *app) runConfigShow() error {
	cfg := a.cfg
	w := a.stdout

	if file := a.v.ConfigFileUsed(); file != "" {
		fmt.Fprintf(w, "Config file: %s\n\n", file)
	} else {
		fmt.Fprintf(w, "Config file: (using defaults, no file found)\n\n")
	}

	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}

	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	fmt.Fprintf(w, "output:                  %s\n", cfg.Output)
	if cfg.Template != "" {
		fmt.Fprintf(w, "template:                %q\n", cfg.Template)
	}
	fmt.Fprintf(w, "history.enabled:         %t\n", cfg.History.Enabled)
	fmt.Fprintf(w, "history.path:            %s\n", cfg.History.Path)
	fmt.Fprintf(w, "history.retention_days:  %d\n", cfg.History.RetentionDays)
	fmt.Fprintf(w, "logging.level:           %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "logging.path:            %s\n", logPath)
	fmt.Fprintf(w, "logging.rotation:        max_size=%s max_age=%d max_backups=%d daily=%t\n",
		cfg.Logging.Rotation.MaxSize, cfg.Logging.Rotation.MaxAge,
		cfg.Logging.Rotation.MaxBackups, cfg.Logging.Rotation.Daily)

	if len(cfg.Logging.Components) > 0 {
		names := make([]string, 0, len(cfg.Logging.Components))
		for name := range cfg.Logging.Components {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "logging.components.%-6s %s\n", name+":", cfg.Logging.Components[name])
		}
	}

	fmt.Fprintln(w, "\nEnvironment Overrides:")
	fmt.Fprintln(w, "----------------------")
	found := false
	for _, name := range envOverrides {
		if val := os.Getenv(name); val != "" {
			fmt.Fprintf(w, "%s=%s\n", name, val)
			found = true
		}
	}
	if !found {
		fmt.Fprintln(w, "(none)")
	}

	return nil
}

// runConfigInit creates a default config file.
func (a *app) runConfigInit() error {
	path, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if !created {
		a.printInfo("Config file already exists: %s", path)
		a.printInfo("Use 'primes config edit' to modify it.")
		return nil
	}

	a.printInfo("Created default config file: %s", path)
	return nil
}

// runConfigPath prints the config file in use, or where one would be created.
func (a *app) runConfigPath() error {
	if file := a.v.ConfigFileUsed(); file != "" {
		fmt.Fprintln(a.stdout, file)
		return nil
	}

	path, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

// runConfigEdit opens the config file in an editor.
func (a *app) runConfigEdit() error {
	path, _, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	logger.Debug("opening config", "path", path, "editor", editor)

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = a.stdout
	editorCmd.Stderr = a.stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}
