package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/store"
)

func init() {
	Register(&EditCmd{})
}

// optionalString is a string flag that remembers whether it was given.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// EditCmd implements the edit command.
type EditCmd struct {
	title   optionalString
	details optionalString
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(title string) { c.title.Set(title) }

// SetDetails sets the new details (for testing).
func (c *EditCmd) SetDetails(details string) { c.details.Set(details) }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or details" }
func (c *EditCmd) Usage() string     { return "todo edit [--title <text>] [--details <text>] <id>" }
func (c *EditCmd) NeedsAuth() bool   { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.details = optionalString{}, optionalString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.details, "details", "")
	fs.Var(&c.details, "d", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !c.title.set && !c.details.set {
		fmt.Fprintln(errOut, "error: nothing to change (use --title or --details)")
		return exitcode.UserError
	}

	// Unchanged fields keep their current values, so the task must be known.
	if err := st.Load(ctx); err != nil {
		return reportError(errOut, err)
	}
	current, found := st.Lookup(id)
	if !found {
		fmt.Fprintf(errOut, "error: task not found: %s\n", id)
		return exitcode.UserError
	}

	title, details := current.Title, current.Details
	if c.title.set {
		title = c.title.value
	}
	if c.details.set {
		details = c.details.value
	}

	if err := st.UpdateTask(ctx, id, title, details); err != nil {
		return reportError(errOut, err)
	}
	return printOK(cfg, out)
}
