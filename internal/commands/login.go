package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"todo/internal/backend/googletasks"
	"todo/internal/backend/rest"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/session"
	"todo/internal/store"
)

// PasswordEnv names the environment variable read when --password is not given.
const PasswordEnv = "TODO_PASSWORD"

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	username string
	password string

	// Authenticator overrides the configured backend's login (for testing).
	Authenticator session.Authenticator
}

// SetCredentials sets the username and password (for testing).
func (c *LoginCmd) SetCredentials(username, password string) {
	c.username = username
	c.password = password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in and store the session" }
func (c *LoginCmd) Usage() string {
	return "todo login [--username <name>] [--password <password>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	// A stored session with a token stays in effect until logout
	if existing, err := session.Load(cfg.SessionPath()); err == nil {
		if _, active := session.NewHolder(existing).Token(); active {
			if !cfg.Quiet {
				fmt.Fprintf(out, "already logged in as %s\n", existing.Username)
			}
			return exitcode.Success
		}
	}

	auth := c.Authenticator
	if auth == nil {
		if cfg.Backend == config.BackendGoogleTasks && !cfg.HasOAuthClient() {
			printOAuthClientHelp(cfg, errOut)
			return exitcode.AuthError
		}
		auth = newAuthenticator(cfg, errOut)
	}

	password := c.password
	if password == "" {
		password = os.Getenv(PasswordEnv)
	}

	sess, err := auth.Authenticate(ctx, session.Credentials{Username: c.username, Password: password})
	if err != nil {
		fmt.Fprintf(errOut, "error: login failed: %v\n", err)
		if code := exitcode.For(err); code == exitcode.BackendError {
			return code
		}
		return exitcode.AuthError
	}

	holder := session.NewHolder(nil)
	if err := holder.Set(sess); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := session.Save(cfg.SessionPath(), sess); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.AuthError
	}

	return printOK(cfg, out)
}

// newAuthenticator returns the login flow of the configured backend.
func newAuthenticator(cfg *config.Config, prompt io.Writer) session.Authenticator {
	if cfg.Backend == config.BackendGoogleTasks {
		return googletasks.NewAuthenticator(cfg, prompt)
	}
	client := rest.New(cfg.BaseURL,
		rest.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		rest.WithLogger(cfg.Log()),
	)
	return rest.NewAuthenticator(client)
}

func printOAuthClientHelp(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n\n", cfg.Dir)
	fmt.Fprintln(errOut, "The googletasks backend needs OAuth credentials:")
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(errOut, "2. Enable the Google Tasks API:")
	fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
	fmt.Fprintln(errOut, "3. Create an OAuth client ID of type 'Desktop app' and download the JSON")
	fmt.Fprintln(errOut, "4. Save it as:")
	fmt.Fprintf(errOut, "   %s\n", cfg.OAuthClientPath())
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "Then run 'todo login' again.")
}
