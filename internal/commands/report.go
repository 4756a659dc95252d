package commands

import (
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

// reportError prints err to errOut and returns its exit code.
func reportError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %v\n", err)
	switch {
	case service.KindOf(err) == service.KindAuthMissing:
		fmt.Fprintln(errOut, "run: todo login")
	case service.IsUnauthorized(err):
		fmt.Fprintln(errOut, "session rejected, run: todo logout && todo login")
	}
	return exitcode.For(err)
}

// printOK prints the success marker unless quiet.
func printOK(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
