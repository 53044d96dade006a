package domain

import "errors"

var (
	// ErrWorkspaceNotFound is returned when a workspace ID cannot be found in the store.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrWorkspaceExists is returned when creating a workspace with an ID already in use.
	ErrWorkspaceExists = errors.New("workspace already exists")

	// ErrWorkspaceLocked is returned when a transition is attempted on a locked workspace.
	// The attempt fails before any provider call or write.
	ErrWorkspaceLocked = errors.New("workspace is locked")

	// ErrInvalidTransition is returned when the target state is not the immediate
	// successor of the current state, or no prompt template is registered for the pair.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrProviderUnavailable is returned when the reasoning provider cannot be reached.
	// Nothing is committed for the failed step; the caller may retry.
	ErrProviderUnavailable = errors.New("reasoning provider unavailable")

	// ErrMalformedResponse is returned when the provider output does not match the
	// schema expected for the target state. Previously committed states are untouched.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrAlreadyFinal is returned when stepping a workspace that has reached
	// READY_FOR_HUMAN.
	ErrAlreadyFinal = errors.New("workspace already in final state")

	// ErrRevisionConflict is returned by a store when an apply races a concurrent
	// mutation of the same workspace.
	ErrRevisionConflict = errors.New("workspace revision conflict")

	// ErrMissingElementNotFound is returned when resolving a gap that does not exist.
	ErrMissingElementNotFound = errors.New("missing element not found")

	// ErrHumanOnly is returned when a privileged operation (lock, unlock, resolve)
	// is attempted by the AI actor.
	ErrHumanOnly = errors.New("operation reserved for human actors")
)
