package googletasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"todo/internal/config"
	"todo/internal/service"
	"todo/internal/session"
)

const (
	// OAuth callback timeout
	oauthCallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// Starting port for OAuth callback server
	oauthStartPort = 8085

	// Max port attempts
	oauthMaxPortAttempts = 5
)

// Authenticator runs the OAuth loopback flow with PKCE.
// The authorization URL is printed to prompt.
type Authenticator struct {
	cfg    *config.Config
	prompt io.Writer
}

// NewAuthenticator returns an Authenticator for cfg.
func NewAuthenticator(cfg *config.Config, prompt io.Writer) *Authenticator {
	return &Authenticator{cfg: cfg, prompt: prompt}
}

// Authenticate implements session.Authenticator. Password is ignored; the
// username defaults to "google".
func (a *Authenticator) Authenticate(ctx context.Context, creds session.Credentials) (session.Session, error) {
	if !a.cfg.HasOAuthClient() {
		return session.Session{}, service.Validation("login", fmt.Sprintf("oauth_client.json not found in %s", a.cfg.Dir))
	}
	oauthConfig, err := loadOAuthConfig(a.cfg)
	if err != nil {
		return session.Session{}, err
	}

	port, listener, err := findAvailablePort()
	if err != nil {
		return session.Session{}, errors.New("could not bind to local port for OAuth callback")
	}
	defer listener.Close()

	oauthConfig.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	authURL := oauthConfig.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintln(a.prompt, "Open this URL in your browser:")
	fmt.Fprintln(a.prompt, authURL)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			errCh <- errors.New("no code in callback")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You may close this window.</p></body></html>")
		codeCh <- code
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return session.Session{}, err
	case <-time.After(oauthCallbackTimeout):
		return session.Session{}, errors.New("oauth callback timed out")
	case <-ctx.Done():
		return session.Session{}, errors.New("cancelled")
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	token, err := oauthConfig.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	username := creds.Username
	if username == "" {
		username = "google"
	}
	return session.Session{Username: username, Token: token}, nil
}

// findAvailablePort tries to find an available port starting from oauthStartPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < oauthMaxPortAttempts; i++ {
		port := oauthStartPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, errors.New("no available port found")
}
