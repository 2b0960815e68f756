package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidReward      = errors.New("reward outside [-1, 1]")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrUnknownBackend     = errors.New("unknown generation backend")
	ErrUnknownAlgorithm   = errors.New("unknown selection algorithm")
	ErrJobNotCancellable  = errors.New("job is already processing")
	ErrAllBackendsFailed  = errors.New("all generation backends failed")
	ErrQueueStopped       = errors.New("job queue is not running")
	ErrLockNotAcquired    = errors.New("could not acquire preference lock")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
