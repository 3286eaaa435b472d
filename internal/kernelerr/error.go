// Package kernelerr defines the error type used throughout the VMM core.
//
// The bare-metal environment has no allocator until well after the MMU is
// live, so errors.New (which allocates) is unusable during bring-up. Every
// error is instead a package-level *Error value.
package kernelerr

// Error describes a failure raised by a bring-up component. All values are
// pre-allocated globals; none are constructed at fault time.
type Error struct {
	// Module names the component that raised the error (e.g. "walk", "enable").
	Module string

	// Message is a short, fixed diagnostic string.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Module + ": " + e.Message
}
