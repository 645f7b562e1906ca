package main

import (
	"context"
	"fmt"
	"strings"

	"burnish/internal/api"
)

// resolveSessionID accepts a full session id or a unique prefix and returns
// the full id.
func resolveSessionID(ctx context.Context, svc *api.SessionService, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("session id is required")
	}
	sessions, err := svc.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list sessions: %w", err)
	}

	var matches []string
	for _, session := range sessions {
		if session.ID == arg {
			return session.ID, nil
		}
		if strings.HasPrefix(session.ID, arg) {
			matches = append(matches, session.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no session matches %q", arg)
	default:
		return "", fmt.Errorf("session id %q is ambiguous (%d matches)", arg, len(matches))
	}
}
