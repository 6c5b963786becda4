package optimize

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNull(t *testing.T) {

	var o Null

	if !o.Available() {
		t.Fatalf("Null optimizer reported as unavailable")
	}

	err := o.Optimize(context.Background(), []string{"x.png"}, true)

	if err != nil {
		t.Fatalf("Null optimizer returned an error, %v", err)
	}
}

func TestOxipngMissingBinary(t *testing.T) {

	o := NewOxipng("/nonexistent/oxipng", time.Second)

	if o.Available() {
		t.Fatalf("Expected missing binary to be unavailable")
	}

	err := o.Optimize(context.Background(), []string{"x.png"}, false)

	if err == nil {
		t.Fatalf("Expected an error for a missing binary")
	}

	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Unexpected error, %v", err)
	}
}

func TestOxipngNoFiles(t *testing.T) {

	// An optimizer resolved from an empty PATH entry may or may not exist
	// on the test host so only the no-op path is exercised here.

	o := NewOxipng("", 0)

	if !o.Available() {
		return
	}

	err := o.Optimize(context.Background(), []string{}, false)

	if err != nil {
		t.Fatalf("Expected optimizing nothing to succeed, %v", err)
	}
}
