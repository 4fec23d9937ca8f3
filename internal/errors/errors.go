// Package errors provides the structured error type shared by the quickstart
// packages and a collector for recoverable errors that are reported but do
// not abort an operation, such as a rename that could not be performed.
package errors

import (
	"sync"
)

// Collector gathers recoverable errors produced while an operation keeps going.
type Collector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewCollector creates a new error collector
func NewCollector() *Collector {
	return &Collector{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collector. Nil errors are ignored.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = append(c.errors, err)
}

// Errors returns a copy of the collected errors
func (c *Collector) Errors() []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// HasErrors returns true if there are any errors
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.errors) > 0
}

// Len returns the number of collected errors
func (c *Collector) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.errors)
}

// ByCode returns the collected errors carrying the given code
func (c *Collector) ByCode(code string) []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var matched []error
	for _, err := range c.errors {
		if HasCode(err, code) {
			matched = append(matched, err)
		}
	}
	return matched
}

// Clear clears all errors
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = c.errors[:0]
}
