package mdblocks

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceLimitExceeded matches any *ResourceLimitError.
	ErrResourceLimitExceeded = errors.New("mdblocks: resource limit exceeded")
	// ErrInternalConsistency matches any *InternalConsistencyError.
	ErrInternalConsistency = errors.New("mdblocks: internal consistency violation")
)

// ResourceLimitError reports input larger than Options.MaxInputBytes.
type ResourceLimitError struct {
	Size  int
	Limit int
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("mdblocks: input of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimitExceeded
}

// InternalConsistencyError indicates a converter bug. No Markdown input,
// valid or not, is expected to produce it.
type InternalConsistencyError struct {
	Stage string
	Err   error
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("mdblocks: internal consistency violation during %s: %v", e.Stage, e.Err)
}

func (e *InternalConsistencyError) Unwrap() error {
	return e.Err
}

func (e *InternalConsistencyError) Is(target error) bool {
	return target == ErrInternalConsistency
}
