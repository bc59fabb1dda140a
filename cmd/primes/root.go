package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/primes/pkg/primes/config"
	"github.com/jamesainslie/primes/pkg/primes/counter"
	"github.com/jamesainslie/primes/pkg/primes/logging"
	"github.com/jamesainslie/primes/pkg/primes/output"
)

// errUsage is returned when the bound argument is missing or repeated.
var errUsage = errors.New("wrong number of arguments")

var logger = logging.Get("cli")

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "primes <max>",
		Short: "Count primes by trial division and report CPU time",
		Long: `Primes counts the prime numbers from 1 up to <max> using naive trial
division and reports how much process CPU time the count took. It is a
deliberately slow, single-threaded workload for exercising compute nodes.

Examples:
  primes 100000              # Count primes up to 100000
  primes -o json 50000       # Structured output
  primes -5                  # Negative bounds count zero primes
  primes history             # Recent runs on this machine
  primes config show         # Effective configuration`,
		Args:              exactlyOneBound,
		RunE:              a.runCount,
		PersistentPreRunE: a.bootstrap,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ~/.config/primes/config.yaml)")
	flags.StringP("output", "o", "", "output format: "+strings.Join(output.Available(), ", "))
	flags.String("template", "", "text/template for --output template")
	flags.Bool("no-history", false, "do not record this run in the history database")
	flags.BoolP("verbose", "v", false, "debug output on stderr")
	flags.BoolP("quiet", "q", false, "suppress informational messages")

	_ = a.v.BindPFlag("output", flags.Lookup("output"))
	_ = a.v.BindPFlag("template", flags.Lookup("template"))
	_ = a.v.BindPFlag("no_history", flags.Lookup("no-history"))
	_ = a.v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = a.v.BindPFlag("quiet", flags.Lookup("quiet"))

	rootCmd.AddCommand(
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)

	return rootCmd
}

// exactlyOneBound accepts a single positional argument and nothing else.
func exactlyOneBound(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	a := &app{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
	}

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(boundArgs(args))
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if closeErr := logging.Close(); closeErr != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", closeErr)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stdout, counter.UsageLine)
		return 1
	default:
		a.printError("%v", err)
		return 1
	}
}

// valueFlags take the next argument as their value, even when it starts with "-".
var valueFlags = map[string]bool{
	"--config": true, "-o": true, "--output": true, "--template": true,
	"-l": true, "--limit": true, "--older-than": true,
}

// boundArgs moves arguments that read as negative numbers behind "--" so
// they reach the command as positional arguments instead of failing flag
// parsing. Everything already after "--" stays in place.
func boundArgs(args []string) []string {
	var rest, bounds []string
	for i, arg := range args {
		if arg == "--" {
			if len(bounds) == 0 {
				return args
			}
			out := append(append(rest, "--"), bounds...)
			return append(out, args[i+1:]...)
		}
		if looksNegative(arg) && (i == 0 || !valueFlags[args[i-1]]) {
			bounds = append(bounds, arg)
			continue
		}
		rest = append(rest, arg)
	}
	if len(bounds) == 0 {
		return args
	}
	return append(append(rest, "--"), bounds...)
}

// looksNegative reports whether s is optional leading space, "-", then a digit.
func looksNegative(s string) bool {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	return len(s) >= 2 && s[0] == '-' && s[1] >= '0' && s[1] <= '9'
}

func (a *app) verbose() bool {
	return a.v.GetBool("verbose")
}

func (a *app) quiet() bool {
	return a.v.GetBool("quiet")
}

// printInfo prints a message to stdout unless quiet mode is enabled.
func (a *app) printInfo(format string, args ...interface{}) {
	if !a.quiet() {
		fmt.Fprintf(a.stdout, format+"\n", args...)
	}
}

// printWarning prints a warning to stderr unless quiet mode is enabled.
func (a *app) printWarning(format string, args ...interface{}) {
	if !a.quiet() {
		fmt.Fprintf(a.stderr, "Warning: "+format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func (a *app) printError(format string, args ...interface{}) {
	fmt.Fprintf(a.stderr, "Error: "+format+"\n", args...)
}
