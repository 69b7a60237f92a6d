package models

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// UserContextKey is the request-context key holding the verified player ID.
	UserContextKey contextKey = "userID"
	// RolesContextKey is the request-context key holding the player's roles.
	RolesContextKey contextKey = "userRoles"
)

// GetUserIDFromContext extracts the verified player ID from the context.
// Returns uuid.Nil and false if the key is missing or has the wrong type.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserContextKey).(uuid.UUID)
	return userID, ok
}

// GetRolesFromContext extracts the roles slice from the context.
func GetRolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(RolesContextKey).([]string)
	return roles, ok
}
