package backend

import (
	"fmt"

	"github.com/theleywin/love-on-the-pixel/src/errs"
)

// ConnectionArgs are the arguments of the bidirectional connection procedures.
type ConnectionArgs struct {
	UserA  string
	UserB  string
	Status string
}

func (a ConnectionArgs) Map() map[string]any {
	m := map[string]any{"user_a": a.UserA, "user_b": a.UserB}
	if a.Status != "" {
		m["status"] = a.Status
	}
	return m
}

// ParseConnectionArgs reads procedure arguments back; adapters use it so every
// backend validates the same way.
func ParseConnectionArgs(args map[string]any, needStatus bool) (ConnectionArgs, error) {
	str := func(key string) string {
		v, _ := args[key].(string)
		return v
	}
	a := ConnectionArgs{UserA: str("user_a"), UserB: str("user_b"), Status: str("status")}
	if a.UserA == "" || a.UserB == "" {
		return a, fmt.Errorf("user_a and user_b are required: %w", errs.ErrInvalidInput)
	}
	if a.UserA == a.UserB {
		return a, fmt.Errorf("cannot connect a user to itself: %w", errs.ErrInvalidInput)
	}
	if needStatus && a.Status == "" {
		return a, fmt.Errorf("status is required: %w", errs.ErrInvalidInput)
	}
	return a, nil
}
