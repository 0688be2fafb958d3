package entity

import "fmt"

// AuthenticationError rejects a request before any state is touched.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// ValidationError names the first missing or malformed form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// RequiredStepError aborts the creation pipeline. Best-effort steps
// never produce one.
type RequiredStepError struct {
	Step string
	Err  error
}

func (e *RequiredStepError) Error() string {
	return fmt.Sprintf("required step %s failed: %v", e.Step, e.Err)
}

func (e *RequiredStepError) Unwrap() error {
	return e.Err
}
