package domain

import (
	"errors"
	"fmt"
)

// Failure taxonomy. Only ErrAuthFailure aborts a whole posting run; every
// other kind is contained to the smallest unit (one lead, one target, one
// generation call) so partial progress survives.
var (
	// ErrNotFound: a referenced descriptor, lead or post id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrMalformedResult: the generative backend's output could not be
	// decoded into any recognized shape.
	ErrMalformedResult = errors.New("malformed backend result")

	// ErrAuthFailure: the platform session cannot be established or
	// verified. Fatal to the entire posting run.
	ErrAuthFailure = errors.New("platform authentication failed")

	// ErrGenerationFailure: generated content was empty or did not conform
	// to the requested shape. Persisted state stays untouched.
	ErrGenerationFailure = errors.New("content generation failed")
)

// WriteError wraps a failed platform write (submission or reply) with
// enough context to record the attempt against its target.
type WriteError struct {
	Op        string // "submit" or "reply"
	Subreddit string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s to r/%s failed: %v", e.Op, e.Subreddit, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
