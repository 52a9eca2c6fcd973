package auth

import (
	"context"
	"errors"
)

// UserContext represents the authenticated caller of a request
type UserContext struct {
	UserID   string
	Email    string
	Username string
	Roles    []string
}

type contextKey string

const userContextKey contextKey = "user"

// GetUserFromContext extracts the user from context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil || user.UserID == "" {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}

// SetUserInContext adds the user to context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
