package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxSessionsReached   = errors.New("maximum sessions reached")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionClosed        = errors.New("session is closed")
	ErrIngestBusy           = errors.New("session already has an ingest connection")
	ErrInvalidFrame         = errors.New("invalid frame")
	ErrInvalidConfig        = errors.New("invalid session configuration")
	ErrListenerFailed       = errors.New("failed to create listener")
)
