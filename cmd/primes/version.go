package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build-time variables set with go build -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Display the version, commit hash, and build date of primes.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "primes %s\n", version)
			fmt.Fprintf(a.stdout, "  commit:  %s\n", commit)
			fmt.Fprintf(a.stdout, "  built:   %s\n", date)
			fmt.Fprintf(a.stdout, "  go:      %s\n", runtime.Version())
			fmt.Fprintf(a.stdout, "  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
