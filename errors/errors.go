// Package errors holds error helpers shared by the keyed-array packages.
package errors

import "errors"

// Collection accumulates errors so that a check can report every problem it
// found instead of stopping at the first. It is not safe for concurrent use.
type Collection struct {
	errors []error
}

// Add appends err. Nil errors are ignored.
func (c *Collection) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// Clear forgets every collected error.
func (c *Collection) Clear() {
	c.errors = nil
}

// HasError returns true if at least one error was collected.
func (c *Collection) HasError() bool {
	return len(c.errors) > 0
}

// Len returns the number of collected errors.
func (c *Collection) Len() int {
	return len(c.errors)
}

// GetError returns nil when empty, the single error when there is one, or
// errors.Join of all of them.
func (c *Collection) GetError() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return errors.Join(c.errors...)
	}
}
