package commands_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/store"
	"todo/internal/testutil"
)

// runCommand is a helper to run a command against a store backed by svc.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := config.New(t.TempDir())
	cfg.Quiet = quiet

	var st *store.Store
	if svc != nil {
		holder := session.NewHolder(&session.Session{
			Username: "alice",
			Token:    &oauth2.Token{AccessToken: "secret"},
		})
		st = store.New(svc, holder)
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, st, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todo 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{"Usage:", "todo toggle <id>", "--metrics <file>"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

// Tests for list command
func TestListCommand_WithTasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", "2 liters", false)
	svc.AddTask("Buy eggs", "", true)

	cmd := &commands.ListCmd{}
	cmd.SetFilter("all")
	stdout, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}

	expected := "   1  [ ] Buy milk\n          2 liters\n   2  [x] Buy eggs\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_Filtered(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", "", false)
	svc.AddTask("Buy eggs", "", true)

	cmd := &commands.ListCmd{}
	cmd.SetFilter("completed")
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "------------\ncompleted\n------------\n   2  [x] Buy eggs\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ListCmd{}
	cmd.SetFilter("all")
	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected 'no tasks found', got %q", stdout)
	}
}

func TestListCommand_EmptyQuiet(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ListCmd{}
	cmd.SetFilter("all")
	stdout, _, code := runCommand(t, cmd, svc, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
}

func TestListCommand_InvalidFilter(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ListCmd{}
	cmd.SetFilter("someday")
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid filter: someday\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", svc.TotalCalls())
	}
}

func TestListCommand_ServerError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListErr = service.FromStatus(500, "database unavailable", nil)

	cmd := &commands.ListCmd{}
	cmd.SetFilter("all")
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: load tasks: database unavailable (500)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestListCommand_Unauthorized(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListErr = service.FromStatus(401, "", nil)

	cmd := &commands.ListCmd{}
	cmd.SetFilter("all")
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "todo login") {
		t.Errorf("expected login hint, got %q", stderr)
	}
}

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetDetails("2 liters")
	stdout, stderr, code := runCommand(t, cmd, svc, []string{"Buy", "milk"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}

	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Details != "2 liters" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetDetails("x")
	stdout, _, code := runCommand(t, cmd, svc, []string{"Task"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
}

func TestAddCommand_NoTitle(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetDetails("x")
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: title required\n" {
		t.Errorf("expected 'error: title required', got %q", stderr)
	}
}

func TestAddCommand_NoDetails(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.AddCmd{}
	cmd.SetDetails("")
	_, stderr, code := runCommand(t, cmd, svc, []string{"Task"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: add task: details are required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", svc.TotalCalls())
	}
}

// Tests for edit command
func TestEditCommand_KeepsUnsetFields(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("Buy milk", "2 liters", false)

	cmd := &commands.EditCmd{}
	cmd.SetTitle("Buy oat milk")
	stdout, stderr, code := runCommand(t, cmd, svc, []string{task.ID.String()}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	got := svc.Tasks()[0]
	if got.Title != "Buy oat milk" || got.Details != "2 liters" {
		t.Errorf("unexpected task after edit: %+v", got)
	}
}

func TestEditCommand_NothingToChange(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("Buy milk", "2 liters", false)

	cmd := &commands.EditCmd{}
	_, _, code := runCommand(t, cmd, svc, []string{task.ID.String()}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if svc.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", svc.TotalCalls())
	}
}

func TestEditCommand_UnknownID(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.EditCmd{}
	cmd.SetDetails("x")
	_, stderr, code := runCommand(t, cmd, svc, []string{"9"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task not found: 9\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for toggle command
func TestToggleCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("Buy milk", "", false)

	cmd := &commands.ToggleCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{task.ID.String()}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok: completed\n" {
		t.Errorf("expected 'ok: completed', got %q", stdout)
	}
	if !svc.Tasks()[0].Completed {
		t.Error("task should be completed")
	}
}

func TestToggleCommand_ServerDecides(t *testing.T) {
	svc := testutil.NewFakeService()
	task := svc.AddTask("Buy milk", "", false)
	stayOpen := false
	svc.ToggleEcho = &stayOpen

	cmd := &commands.ToggleCmd{}
	stdout, _, code := runCommand(t, cmd, svc, []string{task.ID.String()}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok: open\n" {
		t.Errorf("expected 'ok: open', got %q", stdout)
	}
}

func TestToggleCommand_NoID(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ToggleCmd{}
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task id required\n" {
		t.Errorf("expected 'error: task id required', got %q", stderr)
	}
}

func TestToggleCommand_UnknownID(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.ToggleCmd{}
	_, stderr, code := runCommand(t, cmd, svc, []string{"5"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: toggle task: no task with id 5\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.Calls("toggle") != 0 {
		t.Error("toggle should not reach the backend")
	}
}

// Tests for rm command
func TestRmCommand_Success(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Task 1", "", false)
	task := svc.AddTask("Task 2", "", false)

	cmd := &commands.RmCmd{}
	stdout, stderr, code := runCommand(t, cmd, svc, []string{task.ID.String()}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if len(svc.Tasks()) != 1 {
		t.Errorf("expected 1 task left, got %d", len(svc.Tasks()))
	}
}

func TestRmCommand_NotFound(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.RmCmd{}
	_, stderr, code := runCommand(t, cmd, svc, []string{"99"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: delete task: task not found (404)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRmCommand_NoID(t *testing.T) {
	svc := testutil.NewFakeService()

	cmd := &commands.RmCmd{}
	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task id required\n" {
		t.Errorf("expected 'error: task id required', got %q", stderr)
	}
}

func TestRegistryAliases(t *testing.T) {
	for alias, name := range map[string]string{
		"ls":     "list",
		"create": "add",
		"update": "edit",
		"done":   "toggle",
		"delete": "rm",
	} {
		cmd, ok := commands.DefaultRegistry.Find(alias)
		if !ok {
			t.Errorf("alias %q not registered", alias)
			continue
		}
		if cmd.Name() != name {
			t.Errorf("alias %q resolves to %q, want %q", alias, cmd.Name(), name)
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&commands.ToggleCmd{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&commands.ToggleCmd{}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if got := len(r.All()); got != 1 {
		t.Errorf("expected 1 command, got %d", got)
	}
}
