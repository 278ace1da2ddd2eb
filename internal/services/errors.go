package services

import "errors"

var (
	// ErrRemoteUnavailable is returned when the remote store yields no content.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	ErrInvalidInput = errors.New("invalid input")

	// ErrVersionConflict is returned when a template version could not be
	// allocated after repeated duplicate-key collisions.
	ErrVersionConflict = errors.New("template version conflict")

	// ErrInvalidTransition is returned when the lifecycle forbids an event.
	ErrInvalidTransition = errors.New("invalid generation transition")

	ErrEmptyPath = errors.New("folder path is empty")
)
