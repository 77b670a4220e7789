package scanning

import "errors"

var (
	// ErrJobNotFound is returned when a job id does not exist in the store.
	ErrJobNotFound = errors.New("scan job not found")

	// ErrInvalidTransition is returned for a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrJobTerminal is returned when mutating a completed or failed job.
	ErrJobTerminal = errors.New("scan job is in a terminal state")

	// ErrProgressRegression is returned when progress would decrease or leave 0-100.
	ErrProgressRegression = errors.New("scan progress must be non-decreasing and within 0-100")

	// ErrInvalidPatch is returned when a patch violates a job invariant.
	ErrInvalidPatch = errors.New("invalid scan job update")

	// ErrQueueFull is returned when the dispatcher cannot accept more runs.
	ErrQueueFull = errors.New("scan queue is full")

	// ErrScanNotActive is returned when cancelling a job that is not running.
	ErrScanNotActive = errors.New("scan is not active")
)
