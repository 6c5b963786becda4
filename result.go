package ico

import (
	"fmt"
	"strings"
	"sync"
)

// ConversionError records a single input that could not be converted.
type ConversionError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ConversionResult is the terminal state of one batch conversion. Its append
// methods are safe for concurrent use; no ordering is guaranteed across
// workers.
type ConversionResult struct {
	Successes []string          `json:"successes"`
	Failures  []ConversionError `json:"failures"`
	Warnings  []string          `json:"warnings"`

	mu sync.Mutex
}

func NewConversionResult() *ConversionResult {

	r := &ConversionResult{
		Successes: make([]string, 0),
		Failures:  make([]ConversionError, 0),
		Warnings:  make([]string, 0),
	}

	return r
}

func (r *ConversionResult) AddSuccess(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Successes = append(r.Successes, path)
}

func (r *ConversionResult) AddFailure(path string, message string) {

	r.mu.Lock()
	defer r.mu.Unlock()

	f := ConversionError{
		Path:    path,
		Message: message,
	}

	r.Failures = append(r.Failures, f)
}

func (r *ConversionResult) AddWarning(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, message)
}

// Summary renders success and failure counts with at most max_failures
// failure messages.
func (r *ConversionResult) Summary(max_failures int) string {

	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder

	fmt.Fprintf(&b, "%d converted, %d failed", len(r.Successes), len(r.Failures))

	for i, f := range r.Failures {

		if i >= max_failures {
			fmt.Fprintf(&b, "\n... and %d more", len(r.Failures)-max_failures)
			break
		}

		fmt.Fprintf(&b, "\n%s: %s", f.Path, f.Message)
	}

	return b.String()
}
