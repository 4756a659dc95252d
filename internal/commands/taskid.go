package commands

import (
	"errors"
	"fmt"
	"strings"

	"todo/internal/service"
)

// ErrTaskIDRequired indicates no task id was provided.
var ErrTaskIDRequired = errors.New("task id required")

// ParseTaskID parses the single task id argument. Ids are opaque: numeric
// REST ids and Google Tasks ids are both accepted as typed.
func ParseTaskID(args []string) (service.ID, error) {
	if len(args) == 0 {
		return "", ErrTaskIDRequired
	}
	if len(args) > 1 {
		return "", fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}
	id := strings.TrimSpace(args[0])
	if id == "" {
		return "", ErrTaskIDRequired
	}
	if strings.ContainsAny(id, " \t\r\n/") {
		return "", fmt.Errorf("invalid task id: %s", args[0])
	}
	return service.ID(id), nil
}
