package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"todo/internal/backend"
	"todo/internal/service"
	"todo/internal/session"
)

// Authenticator logs in through POST /auth/login.
type Authenticator struct {
	client *Client
}

// NewAuthenticator returns an Authenticator using the same transport as c.
func NewAuthenticator(c *Client) *Authenticator {
	return &Authenticator{client: c}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Authenticate implements session.Authenticator.
func (a *Authenticator) Authenticate(ctx context.Context, creds session.Credentials) (session.Session, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return session.Session{}, service.Validation("login", "username and password are required")
	}

	payload, err := json.Marshal(loginRequest{Username: username, Password: creds.Password})
	if err != nil {
		return session.Session{}, fmt.Errorf("marshal request: %w", err)
	}

	c := a.client
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return session.Session{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return session.Session{}, service.WithOp("login", backend.Wrap(err))
	}
	defer res.Body.Close()

	c.log.Debug("login", "username", username, "status", res.StatusCode)

	if err := googleapi.CheckResponse(res); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			apiErr.Message = detailMessage(apiErr.Body)
		}
		return session.Session{}, service.WithOp("login", backend.Wrap(err))
	}

	var body loginResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return session.Session{}, service.WithOp("login", service.Malformed(err))
	}
	if body.Token == "" {
		return session.Session{}, service.WithOp("login", service.Malformed(errors.New("no token in response")))
	}

	return session.Session{
		Username: username,
		Token:    &oauth2.Token{AccessToken: body.Token, TokenType: "Bearer"},
	}, nil
}
