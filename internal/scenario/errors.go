package scenario

import "fmt"

// notFoundError signals an unknown scenario id.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "scenario not found: " + e.id }

// IsNotFound reports whether err indicates an unknown scenario id.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// duplicateIDError signals two scenario files claiming the same id.
type duplicateIDError struct{ id, path string }

func (e duplicateIDError) Error() string {
	return fmt.Sprintf("duplicate scenario id %q in %s", e.id, e.path)
}

// IsDuplicateID reports whether err indicates a duplicate scenario id.
func IsDuplicateID(err error) bool {
	_, ok := err.(duplicateIDError)
	return ok
}

// mismatchError signals a run outcome differing from the scenario's
// expectation block.
type mismatchError struct {
	scenario string
	field    string
	want     any
	got      any
}

func (e mismatchError) Error() string {
	return fmt.Sprintf("scenario %s: expected %s %v, got %v", e.scenario, e.field, e.want, e.got)
}

// IsMismatch reports whether err indicates an expectation mismatch.
func IsMismatch(err error) bool {
	_, ok := err.(mismatchError)
	return ok
}
