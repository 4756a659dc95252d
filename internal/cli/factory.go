package cli

import (
	"context"
	"fmt"
	"net/http"

	"todo/internal/backend/googletasks"
	"todo/internal/backend/rest"
	"todo/internal/config"
	"todo/internal/service"
)

// DefaultFactory builds the backend named by cfg.Backend.
func DefaultFactory(ctx context.Context, cfg *config.Config) (service.Service, error) {
	switch cfg.Backend {
	case config.BackendGoogleTasks:
		if !cfg.HasOAuthClient() {
			return nil, fmt.Errorf("oauth_client.json not found in %s", cfg.Dir)
		}
		return googletasks.New(ctx, cfg)
	case config.BackendREST, "":
		// Per-call deadlines come from the store.
		return rest.New(cfg.BaseURL,
			rest.WithHTTPClient(&http.Client{}),
			rest.WithLogger(cfg.Log()),
		), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
