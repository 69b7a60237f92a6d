package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound = errors.New("resource not found") // General not found

	// Gameplay & Progression Errors
	ErrNoActiveGame   = errors.New("no active game found")                          // No save exists for (player, story)
	ErrInvalidChoice  = errors.New("choice is not valid for the current node")      // Origin mismatch or cross-story target
	ErrConflict       = errors.New("concurrent update conflict, retry the request") // Serialization retry budget exhausted
	ErrStorageFailure = errors.New("storage failure")                               // Underlying store unavailable or tx aborted

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// General Request/Server Errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")
	ErrInvalidInput   = errors.New("invalid input data")
)
