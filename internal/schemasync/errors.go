package schemasync

import "errors"

// Step sentinels. A failed Result's Err matches exactly one of the first three.
var (
	// ErrNormalization marks a schema that could not be normalized.
	ErrNormalization = errors.New("schemasync: normalization failed")

	// ErrRemoteWrite marks a rejected or failed write to the remote authority.
	ErrRemoteWrite = errors.New("schemasync: remote write failed")

	// ErrLocalWrite marks a failed local store write after a successful remote write.
	ErrLocalWrite = errors.New("schemasync: local write failed")

	// ErrPublish is returned by Synchronize when the outcome notification could not be sent.
	ErrPublish = errors.New("schemasync: publishing outcome failed")

	// ErrInvalidMessage is returned by the Consumer for undecodable bus messages.
	ErrInvalidMessage = errors.New("schemasync: invalid message")

	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("schemasync: missing dependency")
)

// stepError ties a step sentinel to the underlying cause.
// Its message is the cause's message so notifications read naturally.
type stepError struct {
	step  error
	cause error
}

func (e *stepError) Error() string { return e.cause.Error() }

func (e *stepError) Unwrap() []error { return []error{e.step, e.cause} }
