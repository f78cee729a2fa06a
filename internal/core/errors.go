package core

import "fmt"

// InvalidOverrideError reports a caller override that cannot be applied.
// It fails the registration of the named resource only.
type InvalidOverrideError struct {
	ResourceID string
	Field      string
	Reason     string
}

func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("invalid override for resource %q: %s: %s", e.ResourceID, e.Field, e.Reason)
}

// InvalidDescriptorError reports a resource descriptor that failed validation.
type InvalidDescriptorError struct {
	ResourceID string
	Err        error
}

func (e *InvalidDescriptorError) Error() string {
	if e.ResourceID == "" {
		return fmt.Sprintf("invalid resource descriptor: %v", e.Err)
	}
	return fmt.Sprintf("invalid resource descriptor %q: %v", e.ResourceID, e.Err)
}

func (e *InvalidDescriptorError) Unwrap() error {
	return e.Err
}
