// Package exitcode defines exit codes for the CLI.
package exitcode

import "todo/internal/service"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, rejected request).
	UserError = 1

	// AuthError indicates a missing, rejected or failed login.
	AuthError = 2

	// BackendError indicates a server or network error.
	BackendError = 3
)

// For maps an error to its exit code. A nil error is Success.
func For(err error) int {
	if err == nil {
		return Success
	}
	switch service.KindOf(err) {
	case service.KindValidation:
		return UserError
	case service.KindAuthMissing:
		return AuthError
	case service.KindRemoteClient:
		if service.IsUnauthorized(err) {
			return AuthError
		}
		return UserError
	default:
		return BackendError
	}
}
