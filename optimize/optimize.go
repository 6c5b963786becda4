// Package optimize wraps the oxipng byte-level PNG optimizer. Optimization
// is best effort: a missing binary or a failed run is reported as a warning
// rather than an error so icon generation never depends on it.
package optimize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Optimizer shrinks already-written PNG files in place.
type Optimizer interface {
	// Available reports whether the optimizer can run at all.
	Available() bool
	// Optimize rewrites the PNG files at paths. The lossy flag records
	// whether the files were palette-quantized when they were encoded.
	Optimize(ctx context.Context, paths []string, lossy bool) error
}

// Oxipng invokes the oxipng binary.
type Oxipng struct {
	// Path is the location of the oxipng binary. If empty the binary is
	// looked up on the PATH.
	Path string
	// Timeout bounds a single invocation. Zero means no timeout.
	Timeout time.Duration

	resolved  string
	available bool
	checked   bool
}

// NewOxipng resolves the oxipng binary once and returns a wrapper around it.
// The availability flag is fixed after this call and safe to share.
func NewOxipng(path string, timeout time.Duration) *Oxipng {

	o := &Oxipng{
		Path:    path,
		Timeout: timeout,
	}

	o.resolve()
	return o
}

func (o *Oxipng) resolve() {

	o.checked = true

	if o.Path != "" {

		_, err := os.Stat(o.Path)

		if err == nil {
			o.resolved = o.Path
			o.available = true
		}

		return
	}

	resolved, err := exec.LookPath("oxipng")

	if err == nil {
		o.resolved = resolved
		o.available = true
	}
}

func (o *Oxipng) Available() bool {

	if !o.checked {
		o.resolve()
	}

	return o.available
}

func (o *Oxipng) Optimize(ctx context.Context, paths []string, lossy bool) error {

	if !o.Available() {
		return fmt.Errorf("oxipng binary not found, skipping optimization")
	}

	if len(paths) == 0 {
		return nil
	}

	// Quantized files get a harder pass with color reductions disabled so
	// oxipng does not rework what the encoder already decided.

	args := []string{
		"-o", "3",
		"--strip", "safe",
	}

	if lossy {

		args[1] = "6"

		args = append(args,
			"--nb",
			"--nc",
			"--np",
		)
	}

	if o.Timeout > 0 {

		args = append(args, "--timeout", strconv.Itoa(int(o.Timeout.Seconds())))

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	args = append(args, paths...)

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, o.resolved, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()

	if err != nil {
		return fmt.Errorf("oxipng exited with an error, %v, %s", err, stderr.String())
	}

	return nil
}

// Null is an Optimizer that reports itself available and does nothing. It
// stands in for oxipng in tests and wherever byte-level optimization is
// disabled outright, without the unavailable-optimizer warning a missing
// binary produces.
type Null struct{}

func (n *Null) Available() bool {
	return true
}

func (n *Null) Optimize(ctx context.Context, paths []string, lossy bool) error {
	return nil
}
