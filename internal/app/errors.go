package service

import "errors"

var (
	// ErrCycleInProgress indicates a watch cycle is already running and the
	// new one was skipped.
	ErrCycleInProgress = errors.New("watch cycle already in progress")
	// ErrNoSources indicates the service has nothing to poll.
	ErrNoSources = errors.New("no sources configured")
)
